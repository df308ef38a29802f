package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/qanun-labs/qanun-cli/internal/core/domain"
	"github.com/qanun-labs/qanun-cli/internal/core/ports/driven"
	"github.com/qanun-labs/qanun-cli/internal/core/ports/driving"
	"github.com/qanun-labs/qanun-cli/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driving.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService drives batch embedding generation over stored chunks.
// Individual chunk failures are reported, never fatal to the batch.
type EmbeddingService struct {
	store       driven.ChunkStore
	encoder     *EncoderService
	batchSize   int
	concurrency int
}

// NewEmbeddingService creates a new embedding service.
func NewEmbeddingService(store driven.ChunkStore, encoder *EncoderService, settings domain.EncoderSettings) *EmbeddingService {
	batchSize := settings.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}
	concurrency := settings.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	return &EmbeddingService{
		store:       store,
		encoder:     encoder,
		batchSize:   batchSize,
		concurrency: concurrency,
	}
}

// GenerateEmbeddings embeds the given chunks and persists each vector as
// it is produced. With an empty chunkIDs slice every stored chunk is
// considered. Already-embedded chunks are skipped unless overwrite is
// set. Each persisted embedding is independently durable, so a run
// interrupted halfway loses nothing and resumes where it stopped.
func (s *EmbeddingService) GenerateEmbeddings(ctx context.Context, chunkIDs []string, overwrite bool) (*domain.EmbeddingReport, error) {
	logger.Section("Embedding Generation")

	if err := s.encoder.Initialize(ctx); err != nil {
		return nil, err
	}
	modelID := s.encoder.ModelID()

	chunks, err := s.store.LoadChunks(ctx, domain.ChunkFilter{IDs: chunkIDs})
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}

	report := domain.NewEmbeddingReport()

	// Skip decisions are made up front so batches hold only real work.
	var pending []domain.Chunk
	for _, chunk := range chunks {
		if !overwrite && chunk.HasEmbedding(modelID) {
			report.Skipped++
			continue
		}
		pending = append(pending, chunk)
	}
	logger.Info("Embedding %d chunks (%d skipped) with model %s", len(pending), report.Skipped, modelID)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for start := 0; start < len(pending); start += s.batchSize {
		end := min(start+s.batchSize, len(pending))
		batch := pending[start:end]

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			processed, failed := s.embedBatch(gctx, batch, modelID)

			mu.Lock()
			report.Processed += processed
			for id, reason := range failed {
				report.Failed[id] = reason
			}
			mu.Unlock()
			return nil
		})
	}

	// Only context cancellation propagates; chunk failures live in the report.
	if err := g.Wait(); err != nil {
		return report, err
	}

	logger.Info("Embedding run complete: %d processed, %d skipped, %d failed",
		report.Processed, report.Skipped, len(report.Failed))
	return report, nil
}

// embedBatch embeds one batch, falling back to per-chunk calls when the
// batch call fails so one bad input cannot sink its neighbours.
func (s *EmbeddingService) embedBatch(ctx context.Context, batch []domain.Chunk, modelID string) (int, map[string]string) {
	failed := make(map[string]string)

	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Content
	}

	vectors, err := s.encoder.EmbedBatch(ctx, texts)
	if err != nil {
		logger.Warn("Batch embed failed (%v), retrying chunks individually", err)
		return s.embedIndividually(ctx, batch, modelID, failed)
	}

	processed := 0
	for i, chunk := range batch {
		if err := s.store.SaveEmbedding(ctx, chunk.ID, vectors[i], modelID); err != nil {
			failed[chunk.ID] = fmt.Sprintf("save embedding: %v", err)
			continue
		}
		processed++
	}
	return processed, failed
}

func (s *EmbeddingService) embedIndividually(ctx context.Context, batch []domain.Chunk, modelID string, failed map[string]string) (int, map[string]string) {
	processed := 0
	for _, chunk := range batch {
		if err := ctx.Err(); err != nil {
			failed[chunk.ID] = fmt.Sprintf("cancelled: %v", err)
			continue
		}
		vector, err := s.encoder.Embed(ctx, chunk.Content)
		if err != nil {
			failed[chunk.ID] = err.Error()
			continue
		}
		if err := s.store.SaveEmbedding(ctx, chunk.ID, vector, modelID); err != nil {
			failed[chunk.ID] = fmt.Sprintf("save embedding: %v", err)
			continue
		}
		processed++
	}
	return processed, failed
}
