package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var embedOverwrite bool

var embedCmd = &cobra.Command{
	Use:   "embed [chunk-id...]",
	Short: "Generate embeddings for stored chunks",
	Long: `Generates vector embeddings for stored chunks using the configured
encoder. Without arguments every chunk is considered; chunks that
already carry an embedding for the configured model are skipped unless
--overwrite is set.

Individual chunk failures are reported and never abort the run. Each
embedding is persisted as it is produced, so an interrupted run resumes
where it stopped.`,
	RunE: runEmbed,
}

func init() {
	embedCmd.Flags().BoolVar(&embedOverwrite, "overwrite", false, "regenerate existing embeddings")
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, args []string) error {
	report, err := embeddingService.GenerateEmbeddings(cmd.Context(), args, embedOverwrite)
	if err != nil {
		return fmt.Errorf("embedding generation failed: %w", err)
	}

	cmd.Printf("Processed: %d\n", report.Processed)
	cmd.Printf("Skipped:   %d\n", report.Skipped)
	cmd.Printf("Failed:    %d\n", len(report.Failed))
	for id, reason := range report.Failed {
		cmd.Printf("  %s: %s\n", id, reason)
	}
	return nil
}
