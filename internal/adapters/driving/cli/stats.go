package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report corpus and index statistics",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	stats, err := indexService.GetStatistics(cmd.Context())
	if err != nil {
		return fmt.Errorf("statistics failed: %w", err)
	}

	if statsJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal statistics: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Model:                  %s\n", stats.ModelID)
	cmd.Printf("Chunks:                 %d\n", stats.TotalChunks)
	cmd.Printf("Chunks with embeddings: %d\n", stats.ChunksWithEmbeddings)
	cmd.Printf("Index status:           %s\n", stats.IndexStatus)
	cmd.Printf("Index vectors:          %d\n", stats.IndexVectors)
	return nil
}
