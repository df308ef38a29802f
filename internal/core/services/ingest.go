package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qanun-labs/qanun-cli/internal/chunker"
	"github.com/qanun-labs/qanun-cli/internal/core/domain"
	"github.com/qanun-labs/qanun-cli/internal/core/ports/driven"
	"github.com/qanun-labs/qanun-cli/internal/core/ports/driving"
	"github.com/qanun-labs/qanun-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService turns raw document text into stored chunk records.
// Embedding and indexing happen in separate, explicit steps.
type IngestService struct {
	store   driven.ChunkStore
	chunker *chunker.Chunker
}

// NewIngestService creates a new ingest service.
func NewIngestService(store driven.ChunkStore, ch *chunker.Chunker) *IngestService {
	if ch == nil {
		ch = chunker.New()
	}
	return &IngestService{store: store, chunker: ch}
}

// Ingest chunks the document content along structural and sentence
// boundaries and persists the document together with its chunks.
// Re-ingesting a document with the same id replaces it.
func (s *IngestService) Ingest(ctx context.Context, doc domain.Document) ([]domain.Chunk, error) {
	logger.Section("Document Ingestion")

	if strings.TrimSpace(doc.Content) == "" {
		return nil, fmt.Errorf("%w: document content is empty", domain.ErrInvalidInput)
	}

	now := time.Now().UTC()
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	logger.Debug("Document: id=%s title=%q type=%s language=%s", doc.ID, doc.Title, doc.DocType, doc.Language)

	var chunks []domain.Chunk
	position := 0
	for span := range s.chunker.Chunk(doc.Content) {
		chunks = append(chunks, domain.Chunk{
			ID:            uuid.New().String(),
			DocumentID:    doc.ID,
			Position:      position,
			Content:       span.Content,
			ArticleNumber: span.ArticleNumber,
			SectionTitle:  span.SectionTitle,
			CreatedAt:     now,
		})
		position++
	}
	logger.Info("Chunked document %s into %d chunks", doc.ID, len(chunks))

	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	if err := s.store.SaveChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("save chunks: %w", err)
	}

	return chunks, nil
}
