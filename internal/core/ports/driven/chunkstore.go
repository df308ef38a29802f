package driven

import (
	"context"

	"github.com/qanun-labs/qanun-cli/internal/core/domain"
)

// ChunkStore is the persistence collaborator for documents, chunks and
// their embeddings. The pipeline never talks to storage any other way.
type ChunkStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// SaveChunks stores chunks, replacing existing rows with the same id.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// LoadChunks retrieves chunk records matching the filter.
	LoadChunks(ctx context.Context, filter domain.ChunkFilter) ([]domain.Chunk, error)

	// SaveEmbedding attaches a vector to a chunk for the given model id.
	// A chunk holds at most one embedding per model id; this overwrites.
	// Each call is independently atomic.
	SaveEmbedding(ctx context.Context, chunkID string, vector []float32, modelID string) error

	// LoadAllEmbeddings returns every stored embedding for the model id,
	// in chunk creation order.
	LoadAllEmbeddings(ctx context.Context, modelID string) ([]domain.ChunkVector, error)

	// LoadMetadata returns the source-document metadata for a chunk.
	LoadMetadata(ctx context.Context, chunkID string) (*domain.DocumentMeta, error)

	// CountChunks returns the total chunk count and the count of chunks
	// embedded with the given model id.
	CountChunks(ctx context.Context, modelID string) (total, embedded int, err error)

	// Close releases resources.
	Close() error
}
