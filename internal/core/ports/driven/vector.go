package driven

import (
	"context"
	"time"

	"github.com/qanun-labs/qanun-cli/internal/core/domain"
)

// VectorIndex provides semantic similarity search over chunk embeddings.
// Implementations publish immutable snapshots: a rebuild constructs a new
// structure off to the side and swaps it in atomically, so concurrent
// searches always see a complete snapshot.
type VectorIndex interface {
	// Rebuild constructs a fresh snapshot over the given vectors and
	// swaps it in. The previous snapshot is discarded.
	Rebuild(ctx context.Context, modelID string, dimension int, vectors []domain.ChunkVector) (IndexInfo, error)

	// Add inserts vectors into the live snapshot when the structure
	// supports incremental insertion; otherwise it triggers a rebuild.
	Add(ctx context.Context, vectors []domain.ChunkVector) error

	// Delete marks a chunk's slot dead. The vector stops matching
	// immediately and is dropped at the next rebuild.
	Delete(ctx context.Context, chunkID string) error

	// Search finds the k nearest neighbours to the query vector, by
	// descending cosine similarity. Dead slots are skipped.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Info describes the live snapshot.
	Info() IndexInfo

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}

// IndexInfo describes a published snapshot.
type IndexInfo struct {
	// ModelID is the embedding model the snapshot was built for.
	ModelID string

	// Dimension is the vector dimensionality.
	Dimension int

	// VectorCount is the number of live vectors.
	VectorCount int

	// BuiltAt is when the snapshot was published.
	BuiltAt time.Time

	// Status is the serving state.
	Status domain.IndexStatus
}
