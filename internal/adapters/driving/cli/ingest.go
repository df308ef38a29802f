package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qanun-labs/qanun-cli/internal/core/domain"
)

var (
	ingestID           string
	ingestTitle        string
	ingestDocType      string
	ingestLanguage     string
	ingestJurisdiction string
	ingestCourt        string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Chunk a document and store it in the corpus",
	Long: `Reads a legal document as plain text, splits it along structural and
sentence boundaries, and stores the document with its chunks.

Use "-" to read from stdin. Re-ingesting with the same --id replaces
the stored document.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "document id (generated when empty)")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title")
	ingestCmd.Flags().StringVar(&ingestDocType, "doc-type", "", "document type (law, regulation, judgment, contract)")
	ingestCmd.Flags().StringVar(&ingestLanguage, "language", "ar", "language code")
	ingestCmd.Flags().StringVar(&ingestJurisdiction, "jurisdiction", "", "issuing jurisdiction")
	ingestCmd.Flags().StringVar(&ingestCourt, "court", "", "issuing court, for judgments")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]

	var content []byte
	var err error
	if path == "-" {
		content, err = io.ReadAll(cmd.InOrStdin())
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	title := ingestTitle
	if title == "" && path != "-" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	doc := domain.Document{
		ID:           ingestID,
		Title:        title,
		Content:      string(content),
		DocType:      ingestDocType,
		Language:     ingestLanguage,
		Jurisdiction: ingestJurisdiction,
		Court:        ingestCourt,
	}

	chunks, err := ingestService.Ingest(cmd.Context(), doc)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	docID := ingestID
	if len(chunks) > 0 {
		docID = chunks[0].DocumentID
	}
	cmd.Printf("Stored document %s with %d chunks.\n", docID, len(chunks))
	cmd.Println("Run 'qanun embed' to generate embeddings, then 'qanun index build'.")
	return nil
}
