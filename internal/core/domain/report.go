package domain

import "time"

// EmbeddingReport is the partial-success result of a batch embedding run.
// Failures are recorded per chunk; they never abort the batch.
type EmbeddingReport struct {
	// Processed is the number of chunks embedded and persisted.
	Processed int

	// Skipped is the number of chunks left untouched because they were
	// already embedded and overwrite was false.
	Skipped int

	// Failed maps chunk id to a human-readable failure reason.
	Failed map[string]string
}

// NewEmbeddingReport returns an empty report with an initialised Failed map.
func NewEmbeddingReport() *EmbeddingReport {
	return &EmbeddingReport{Failed: make(map[string]string)}
}

// Total returns the number of chunks accounted for.
func (r *EmbeddingReport) Total() int {
	return r.Processed + r.Skipped + len(r.Failed)
}

// IndexReport describes a completed index build.
type IndexReport struct {
	// TotalVectors is the number of vectors in the published snapshot.
	TotalVectors int

	// BuildDuration is the wall time the build took.
	BuildDuration time.Duration

	// ModelID is the embedding model the snapshot was built for.
	ModelID string

	// Degraded is true when the build fell back to brute-force search.
	Degraded bool
}

// IndexStatus describes the serving state of the vector index.
type IndexStatus string

// Index serving states.
const (
	// IndexStatusAbsent means no snapshot has been built.
	IndexStatusAbsent IndexStatus = "absent"

	// IndexStatusReady means an ANN snapshot is serving queries.
	IndexStatusReady IndexStatus = "ready"

	// IndexStatusBruteForce means queries run an exact scan, either
	// because the corpus is small or because an ANN build failed.
	IndexStatusBruteForce IndexStatus = "brute_force"
)

// Statistics summarises the state of the pipeline.
type Statistics struct {
	// TotalChunks is the number of stored chunks.
	TotalChunks int

	// ChunksWithEmbeddings is the number of chunks embedded with ModelID.
	ChunksWithEmbeddings int

	// IndexStatus is the serving state of the vector index.
	IndexStatus IndexStatus

	// IndexVectors is the number of vectors in the live snapshot.
	IndexVectors int

	// ModelID is the configured embedding model.
	ModelID string
}
