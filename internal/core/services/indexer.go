package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/qanun-labs/qanun-cli/internal/core/domain"
	"github.com/qanun-labs/qanun-cli/internal/core/ports/driven"
	"github.com/qanun-labs/qanun-cli/internal/core/ports/driving"
	"github.com/qanun-labs/qanun-cli/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService owns vector index lifecycle: it rebuilds the index from
// persisted embeddings and reports on pipeline state. The index itself
// is in-memory; persisted embeddings are the durable source of truth.
type IndexService struct {
	store   driven.ChunkStore
	index   driven.VectorIndex
	encoder *EncoderService

	mu        sync.RWMutex
	threshold int
}

// NewIndexService creates a new index service.
func NewIndexService(store driven.ChunkStore, index driven.VectorIndex, encoder *EncoderService, settings domain.IndexSettings) *IndexService {
	return &IndexService{
		store:     store,
		index:     index,
		encoder:   encoder,
		threshold: settings.BruteForceThreshold,
	}
}

// UpdateSettings applies reloaded index settings.
func (s *IndexService) UpdateSettings(settings domain.IndexSettings) {
	s.mu.Lock()
	s.threshold = settings.BruteForceThreshold
	s.mu.Unlock()
}

// BuildIndex reconstructs the vector index from every persisted
// embedding for the configured model. Vectors of the wrong
// dimensionality are skipped with a warning; they belong to a stale
// model configuration and are excluded rather than fatal.
func (s *IndexService) BuildIndex(ctx context.Context) (*domain.IndexReport, error) {
	logger.Section("Index Build")

	if s.index == nil {
		return nil, domain.ErrIndexUnavailable
	}
	if err := s.encoder.Initialize(ctx); err != nil {
		return nil, err
	}
	modelID := s.encoder.ModelID()
	dimension := s.encoder.Dimensions()

	vectors, err := s.store.LoadAllEmbeddings(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}

	kept := vectors[:0]
	for _, v := range vectors {
		if len(v.Vector) != dimension {
			logger.Warn("Skipping chunk %s: embedding has %d dimensions, index expects %d",
				v.ChunkID, len(v.Vector), dimension)
			continue
		}
		kept = append(kept, v)
	}
	logger.Info("Building index: model=%s dimension=%d vectors=%d", modelID, dimension, len(kept))

	start := time.Now()
	info, err := s.index.Rebuild(ctx, modelID, dimension, kept)
	if err != nil {
		return nil, fmt.Errorf("rebuild index: %w", err)
	}
	elapsed := time.Since(start)

	report := &domain.IndexReport{
		TotalVectors:  info.VectorCount,
		BuildDuration: elapsed,
		ModelID:       modelID,
		Degraded:      s.isDegraded(info),
	}
	if report.Degraded {
		logger.Warn("Index serving in degraded brute-force mode (%d vectors)", info.VectorCount)
	}
	logger.Info("Index built in %s: %d vectors, status=%s", elapsed.Round(time.Millisecond), info.VectorCount, info.Status)
	return report, nil
}

// GetStatistics summarises pipeline state: stored chunks, embedding
// coverage and index serving status.
func (s *IndexService) GetStatistics(ctx context.Context) (*domain.Statistics, error) {
	modelID := s.encoder.ModelID()

	total, embedded, err := s.store.CountChunks(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}

	stats := &domain.Statistics{
		TotalChunks:          total,
		ChunksWithEmbeddings: embedded,
		IndexStatus:          domain.IndexStatusAbsent,
		ModelID:              modelID,
	}
	if s.index != nil {
		info := s.index.Info()
		stats.IndexStatus = info.Status
		stats.IndexVectors = info.VectorCount
	}
	return stats, nil
}

// isDegraded reports whether a brute-force snapshot is serving a corpus
// large enough that an ANN structure was expected.
func (s *IndexService) isDegraded(info driven.IndexInfo) bool {
	s.mu.RLock()
	threshold := s.threshold
	s.mu.RUnlock()
	return info.Status == domain.IndexStatusBruteForce && threshold > 0 && info.VectorCount >= threshold
}
