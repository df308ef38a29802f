package driving

import (
	"context"

	"github.com/qanun-labs/qanun-cli/internal/core/domain"
)

// SearchService provides semantic search capabilities to external actors.
type SearchService interface {
	// Search answers a similarity query with a ranked, threshold-filtered,
	// metadata-enriched result list. An empty result set is a valid,
	// non-error outcome.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error)
}

// EmbeddingService drives batch embedding generation.
type EmbeddingService interface {
	// GenerateEmbeddings embeds the given chunks (all un-embedded chunks
	// when chunkIDs is empty) and returns a partial-success report.
	GenerateEmbeddings(ctx context.Context, chunkIDs []string, overwrite bool) (*domain.EmbeddingReport, error)
}

// IndexService owns vector index lifecycle.
type IndexService interface {
	// BuildIndex reconstructs the vector index from persisted embeddings.
	BuildIndex(ctx context.Context) (*domain.IndexReport, error)

	// GetStatistics summarises pipeline state.
	GetStatistics(ctx context.Context) (*domain.Statistics, error)
}

// IngestService turns raw document text into stored chunk records.
type IngestService interface {
	// Ingest chunks the document content and persists document and chunks.
	Ingest(ctx context.Context, doc domain.Document) ([]domain.Chunk, error)
}
