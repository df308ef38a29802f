package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Vector index commands",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild the vector index from persisted embeddings",
	Long: `Reconstructs the in-memory vector index from every persisted embedding
for the configured model. The index is rebuilt, not updated: embeddings
in the database are the durable source of truth.`,
	RunE: runIndexBuild,
}

func init() {
	indexCmd.AddCommand(indexBuildCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexBuild(cmd *cobra.Command, _ []string) error {
	report, err := indexService.BuildIndex(cmd.Context())
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	cmd.Printf("Indexed %d vectors for model %s in %s.\n",
		report.TotalVectors, report.ModelID, report.BuildDuration.Round(time.Millisecond))
	if report.Degraded {
		cmd.Println("Warning: serving in degraded brute-force mode; queries will be exact but slow.")
	}
	return nil
}
