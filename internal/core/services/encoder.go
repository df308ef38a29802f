package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/qanun-labs/qanun-cli/internal/cache"
	"github.com/qanun-labs/qanun-cli/internal/core/domain"
	"github.com/qanun-labs/qanun-cli/internal/core/ports/driven"
	"github.com/qanun-labs/qanun-cli/internal/logger"
)

// probeText is a short Arabic phrase embedded once at initialisation to
// validate the backend produces vectors of the configured dimensionality.
const probeText = "نص التحقق من النموذج"

// EncoderService wraps an encoder backend with one-time initialisation
// and a content-addressed embedding cache. Embedding the same normalised
// text twice hits the backend once.
type EncoderService struct {
	encoder    driven.Encoder
	cache      *cache.EmbeddingCache
	dimensions int

	group       singleflight.Group
	initialized atomic.Bool
}

// NewEncoderService creates a new encoder service. The cache is optional.
func NewEncoderService(encoder driven.Encoder, embCache *cache.EmbeddingCache, dimensions int) *EncoderService {
	return &EncoderService{
		encoder:    encoder,
		cache:      embCache,
		dimensions: dimensions,
	}
}

// Initialize validates the backend once: reachability, then a probe
// embedding checked against the configured dimensionality. Concurrent
// callers share a single in-flight initialisation. Failure is fatal and
// is reported as a ModelLoadError; callers must not retry.
func (s *EncoderService) Initialize(ctx context.Context) error {
	if s.initialized.Load() {
		return nil
	}
	if s.encoder == nil {
		return domain.ErrEncoderUnavailable
	}

	_, err, _ := s.group.Do("initialize", func() (any, error) {
		if s.initialized.Load() {
			return nil, nil
		}

		logger.Section("Encoder Initialisation")
		logger.Debug("Model: %s, expected dimensions: %d", s.encoder.Identifier(), s.dimensions)

		if err := s.encoder.Ping(ctx); err != nil {
			return nil, &domain.ModelLoadError{ModelID: s.encoder.Identifier(), Err: err}
		}

		vector, err := s.encoder.Embed(ctx, probeText)
		if err != nil {
			return nil, &domain.ModelLoadError{ModelID: s.encoder.Identifier(), Err: err}
		}
		if s.dimensions > 0 && len(vector) != s.dimensions {
			return nil, &domain.ModelLoadError{
				ModelID: s.encoder.Identifier(),
				Err:     &domain.DimensionMismatchError{Expected: s.dimensions, Actual: len(vector)},
			}
		}
		if s.dimensions == 0 {
			s.dimensions = len(vector)
		}

		logger.Info("Encoder ready: model=%s dimensions=%d", s.encoder.Identifier(), s.dimensions)
		s.initialized.Store(true)
		return nil, nil
	})

	return err
}

// Ready reports whether initialisation has completed successfully.
func (s *EncoderService) Ready() bool {
	return s.initialized.Load()
}

// ModelID returns the configured model identifier.
func (s *EncoderService) ModelID() string {
	if s.encoder == nil {
		return ""
	}
	return s.encoder.Identifier()
}

// Dimensions returns the validated vector size.
func (s *EncoderService) Dimensions() int {
	return s.dimensions
}

// Embed returns the embedding for a single text, consulting the cache
// first. Identical normalised content yields the identical vector.
func (s *EncoderService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if vector, ok := s.cache.Get(text, s.ModelID()); ok {
			logger.Debug("Embedding cache hit")
			return vector, nil
		}
	}

	vector, err := s.encoder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(vector) != s.dimensions {
		return nil, &domain.DimensionMismatchError{Expected: s.dimensions, Actual: len(vector)}
	}

	if s.cache != nil {
		s.cache.Put(text, s.ModelID(), vector)
	}
	return vector, nil
}

// EmbedBatch embeds several texts, serving cached entries locally and
// sending only the misses to the backend in one call. The result slice
// is positionally aligned with texts.
func (s *EncoderService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		if s.cache != nil {
			if vector, ok := s.cache.Get(text, s.ModelID()); ok {
				vectors[i] = vector
				continue
			}
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		logger.Debug("Embedding batch fully served from cache: %d texts", len(texts))
		return vectors, nil
	}
	logger.Debug("Embedding batch: %d cached, %d sent to backend", len(texts)-len(missing), len(missing))

	fresh, err := s.encoder.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	if len(fresh) != len(missing) {
		return nil, fmt.Errorf("embed batch: backend returned %d vectors for %d texts", len(fresh), len(missing))
	}

	for j, vector := range fresh {
		if len(vector) != s.dimensions {
			return nil, &domain.DimensionMismatchError{Expected: s.dimensions, Actual: len(vector)}
		}
		vectors[missingIdx[j]] = vector
		if s.cache != nil {
			s.cache.Put(missing[j], s.ModelID(), vector)
		}
	}

	return vectors, nil
}

// Close releases the backend.
func (s *EncoderService) Close() error {
	if s.encoder == nil {
		return nil
	}
	return s.encoder.Close()
}
