package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qanun-labs/qanun-cli/internal/adapters/driven/storage/memory"
	"github.com/qanun-labs/qanun-cli/internal/core/domain"
	"github.com/qanun-labs/qanun-cli/internal/vectorindex"
)

func newIndexFixture(t *testing.T, chunkCount int, settings domain.IndexSettings) (*memory.ChunkStore, *IndexService) {
	t.Helper()
	store := memory.NewChunkStore()
	seedChunks(t, store, chunkCount)

	enc := newFakeEncoder(8)
	encoderSvc := NewEncoderService(enc, nil, 8)

	// Embed everything so the index has vectors to load.
	embedSvc := NewEmbeddingService(store, encoderSvc, domain.EncoderSettings{})
	_, err := embedSvc.GenerateEmbeddings(context.Background(), nil, false)
	require.NoError(t, err)

	index := vectorindex.NewManager(vectorindex.WithOptions(vectorindex.Options{
		BruteForceThreshold: 1000,
		M:                   16,
		EFConstruction:      200,
		EFSearch:            100,
	}))
	return store, NewIndexService(store, index, encoderSvc, settings)
}

func TestIndexService_BuildIndex_NilIndex(t *testing.T) {
	enc := newFakeEncoder(8)
	svc := NewIndexService(memory.NewChunkStore(), nil, NewEncoderService(enc, nil, 8), domain.IndexSettings{})

	_, err := svc.BuildIndex(context.Background())
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestIndexService_BuildIndex(t *testing.T) {
	_, svc := newIndexFixture(t, 5, domain.IndexSettings{BruteForceThreshold: 1000})

	report, err := svc.BuildIndex(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, report.TotalVectors)
	assert.Equal(t, "test-encoder", report.ModelID)
	assert.False(t, report.Degraded)
	assert.Greater(t, report.BuildDuration.Nanoseconds(), int64(0))
}

func TestIndexService_BuildIndex_SkipsWrongDimension(t *testing.T) {
	store, svc := newIndexFixture(t, 4, domain.IndexSettings{BruteForceThreshold: 1000})
	ctx := context.Background()

	// A stale embedding from an earlier model configuration.
	require.NoError(t, store.SaveEmbedding(ctx, "chunk-2", []float32{1, 2, 3}, "test-encoder"))

	report, err := svc.BuildIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalVectors)
}

func TestIndexService_BuildIndex_DegradedBelowConfiguredThreshold(t *testing.T) {
	// The manager serves brute force for this corpus size, yet the
	// configured threshold says an ANN structure was expected.
	_, svc := newIndexFixture(t, 5, domain.IndexSettings{BruteForceThreshold: 3})

	report, err := svc.BuildIndex(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Degraded)
}

func TestIndexService_UpdateSettings(t *testing.T) {
	_, svc := newIndexFixture(t, 5, domain.IndexSettings{BruteForceThreshold: 3})

	svc.UpdateSettings(domain.IndexSettings{BruteForceThreshold: 1000})

	report, err := svc.BuildIndex(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Degraded)
}

func TestIndexService_GetStatistics(t *testing.T) {
	store, svc := newIndexFixture(t, 6, domain.IndexSettings{BruteForceThreshold: 1000})
	ctx := context.Background()

	// Two extra chunks without embeddings.
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "chunk-x", DocumentID: "doc-1", Position: 10, Content: "نص بلا تضمين"},
		{ID: "chunk-y", DocumentID: "doc-1", Position: 11, Content: "نص آخر بلا تضمين"},
	}))

	stats, err := svc.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, stats.TotalChunks)
	assert.Equal(t, 6, stats.ChunksWithEmbeddings)
	assert.Equal(t, domain.IndexStatusAbsent, stats.IndexStatus)

	_, err = svc.BuildIndex(ctx)
	require.NoError(t, err)

	stats, err = svc.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.IndexStatusBruteForce, stats.IndexStatus)
	assert.Equal(t, 6, stats.IndexVectors)
}
