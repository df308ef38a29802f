package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/qanun-labs/qanun-cli/internal/core/domain"
)

var (
	searchTopK         int
	searchThreshold    float64
	searchDocType      string
	searchLanguage     string
	searchJurisdiction string
	searchJSON         bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the legal corpus by semantic similarity",
	Long: `Answers a natural-language query against the indexed corpus. Results
are ranked by cosine similarity and carry the source document's
metadata. Matching nothing is a normal outcome, not an error.

The index is built from persisted embeddings on first use.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "n", 0, "maximum number of results (default from config)")
	searchCmd.Flags().Float64VarP(&searchThreshold, "threshold", "t", 0, "minimum similarity 0-1 (default from config)")
	searchCmd.Flags().StringVar(&searchDocType, "doc-type", "", "restrict to a document type")
	searchCmd.Flags().StringVar(&searchLanguage, "language", "", "restrict to a language code")
	searchCmd.Flags().StringVar(&searchJurisdiction, "jurisdiction", "", "restrict to a jurisdiction")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	// The index is in-memory; a fresh process starts without one.
	if vectorIndex.Info().Status == domain.IndexStatusAbsent {
		if _, err := indexService.BuildIndex(cmd.Context()); err != nil {
			return fmt.Errorf("index build failed: %w", err)
		}
	}

	opts := domain.SearchOptions{
		TopK:      searchTopK,
		Threshold: searchThreshold,
		Filters: domain.SearchFilters{
			DocType:      searchDocType,
			Language:     searchLanguage,
			Jurisdiction: searchJurisdiction,
		},
	}

	resp, err := searchService.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, resp)
	}
	return outputSearchTable(cmd, resp)
}

func outputSearchJSON(cmd *cobra.Command, resp *domain.SearchResponse) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, resp *domain.SearchResponse) error {
	if resp.Degraded {
		cmd.Println("Note: index is serving in degraded brute-force mode.")
	}
	if len(resp.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results (%s):\n", resp.QueryDuration.Round(time.Millisecond))
	cmd.Println()
	for i := range resp.Results {
		r := &resp.Results[i]

		title := r.Document.Title
		if title == "" {
			title = r.Document.DocumentID
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, r.Similarity)
		if r.ArticleNumber != "" {
			cmd.Printf("      Article %s", r.ArticleNumber)
			if r.SectionTitle != "" {
				cmd.Printf(" - %s", r.SectionTitle)
			}
			cmd.Println()
		}
		if r.Document.DocType != "" || r.Document.Jurisdiction != "" {
			cmd.Printf("      %s %s\n", r.Document.DocType, r.Document.Jurisdiction)
		}
		cmd.Printf("      %s\n", snippet(r.Content, 200))
		cmd.Println()
	}
	return nil
}

// snippet truncates content to at most n runes for display.
func snippet(content string, n int) string {
	runes := []rune(content)
	if len(runes) <= n {
		return content
	}
	return string(runes[:n]) + "..."
}
