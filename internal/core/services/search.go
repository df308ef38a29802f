package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/qanun-labs/qanun-cli/internal/cache"
	"github.com/qanun-labs/qanun-cli/internal/core/domain"
	"github.com/qanun-labs/qanun-cli/internal/core/ports/driven"
	"github.com/qanun-labs/qanun-cli/internal/core/ports/driving"
	"github.com/qanun-labs/qanun-cli/internal/logger"
	"github.com/qanun-labs/qanun-cli/internal/vectorindex/distance"
	"github.com/qanun-labs/qanun-cli/internal/vectorindex/flat"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// candidate holds an intermediate hit before result assembly.
type candidate struct {
	chunk      *domain.Chunk
	similarity float64
	order      int // retrieval order, the final tie-break
	meta       *domain.DocumentMeta
}

// SearchService answers similarity queries. A query moves through a
// fixed pipeline of states (encoding, retrieving, filtering, ranking,
// enriching); failure in any state is terminal for that query and names
// the state it died in.
type SearchService struct {
	store      driven.ChunkStore
	index      driven.VectorIndex
	encoder    *EncoderService
	queryCache *cache.QueryCache

	mu       sync.RWMutex
	settings domain.Settings
}

// NewSearchService creates a new search service. The query cache is
// optional.
func NewSearchService(
	store driven.ChunkStore,
	index driven.VectorIndex,
	encoder *EncoderService,
	queryCache *cache.QueryCache,
	settings domain.Settings,
) *SearchService {
	return &SearchService{
		store:      store,
		index:      index,
		encoder:    encoder,
		queryCache: queryCache,
		settings:   settings,
	}
}

// UpdateSettings applies reloaded settings. Thresholds are
// encoder-dependent, so operators recalibrate them without a restart.
func (s *SearchService) UpdateSettings(settings domain.Settings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	logger.Info("Search settings updated: top_k=%d threshold=%.2f", settings.Search.TopK, settings.Search.Threshold)
}

// Search answers a similarity query with a ranked, threshold-filtered,
// metadata-enriched result list. An empty result set is a valid,
// non-error outcome; legal queries legitimately match nothing. With no
// snapshot built, persisted embeddings are scanned exactly and the
// response is marked degraded.
func (s *SearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error) {
	logger.Section("Query Execution")
	start := time.Now()
	state := domain.QueryStateIdle

	fail := func(err error) (*domain.SearchResponse, error) {
		logger.Warn("Query failed while %s: %v", state, err)
		return nil, fmt.Errorf("query failed while %s: %w", state, err)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if s.index == nil {
		return nil, domain.ErrIndexUnavailable
	}
	opts = s.normaliseOptions(opts)
	logger.Debug("Query: %q top_k=%d threshold=%.2f overfetch=%d", query, opts.TopK, opts.Threshold, opts.Overfetch)

	info := s.index.Info()

	// A snapshot built for another model answers in a different vector
	// space; its similarities are meaningless for this encoder.
	if info.Status != domain.IndexStatusAbsent && info.ModelID != "" && info.ModelID != s.encoder.ModelID() {
		return nil, fmt.Errorf("index built for model %q, encoder serves %q: %w",
			info.ModelID, s.encoder.ModelID(), domain.ErrModelMismatch)
	}

	degraded := s.isDegraded(info)

	// A cached answer is only valid for the snapshot it was computed
	// against; the snapshot build time is part of the key.
	cacheKey := ""
	if s.queryCache != nil && info.Status != domain.IndexStatusAbsent {
		cacheKey = cache.QueryKey(query, s.encoder.ModelID(), opts, info.BuiltAt)
		if results, ok := s.queryCache.Get(cacheKey); ok {
			logger.Debug("Query cache hit")
			return &domain.SearchResponse{
				Query:         query,
				Results:       results,
				QueryDuration: time.Since(start),
				Degraded:      degraded,
			}, nil
		}
	}

	state = domain.QueryStateEncoding
	logger.Debug("State: %s", state)
	queryVector, err := s.encoder.Embed(ctx, query)
	if err != nil {
		return fail(err)
	}

	state = domain.QueryStateRetrieving
	logger.Debug("State: %s", state)
	k := opts.TopK * opts.Overfetch
	var hits []driven.VectorHit
	if info.Status == domain.IndexStatusAbsent {
		// No snapshot exists yet. Embedded chunks are still searchable;
		// scan them exactly rather than answering empty.
		logger.Warn("No index snapshot; scanning persisted embeddings")
		degraded = true
		hits, err = s.scanStored(ctx, queryVector, k)
	} else {
		hits, err = s.index.Search(ctx, queryVector, k)
	}
	if err != nil {
		return fail(err)
	}
	logger.Debug("Retrieved %d candidates (requested %d)", len(hits), k)

	state = domain.QueryStateFiltering
	logger.Debug("State: %s", state)
	candidates, err := s.filter(ctx, hits, opts)
	if err != nil {
		return fail(err)
	}
	logger.Debug("After filtering: %d candidates", len(candidates))

	state = domain.QueryStateRanking
	logger.Debug("State: %s", state)
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].similarity != candidates[j].similarity {
			return candidates[i].similarity > candidates[j].similarity
		}
		if !candidates[i].chunk.CreatedAt.Equal(candidates[j].chunk.CreatedAt) {
			return candidates[i].chunk.CreatedAt.Before(candidates[j].chunk.CreatedAt)
		}
		return candidates[i].order < candidates[j].order
	})
	if len(candidates) > opts.TopK {
		candidates = candidates[:opts.TopK]
	}

	state = domain.QueryStateEnriching
	logger.Debug("State: %s", state)
	results := s.enrich(candidates)

	state = domain.QueryStateDone
	elapsed := time.Since(start)
	logger.Info("Query answered: %d results in %s", len(results), elapsed.Round(time.Millisecond))

	if s.queryCache != nil && cacheKey != "" {
		s.queryCache.Put(cacheKey, s.encoder.ModelID(), results)
	}

	return &domain.SearchResponse{
		Query:         query,
		Results:       results,
		QueryDuration: elapsed,
		Degraded:      degraded,
	}, nil
}

// scanStored is the no-snapshot retrieval path: an exact scan over every
// persisted embedding for the configured model. Stored vectors are raw,
// so both sides are normalised here; wrong-dimension or zero-norm
// vectors cannot participate and are skipped.
func (s *SearchService) scanStored(ctx context.Context, queryVector []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	stored, err := s.store.LoadAllEmbeddings(ctx, s.encoder.ModelID())
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}
	if len(stored) == 0 {
		return nil, nil
	}

	q, ok := distance.NormalizeL2Copy(queryVector)
	if !ok {
		return nil, fmt.Errorf("scan: zero-norm query vector: %w", domain.ErrInvalidInput)
	}

	ids := make([]string, 0, len(stored))
	vectors := make([][]float32, 0, len(stored))
	for _, cv := range stored {
		if len(cv.Vector) != len(queryVector) {
			continue
		}
		v, ok := distance.NormalizeL2Copy(cv.Vector)
		if !ok {
			continue
		}
		ids = append(ids, cv.ChunkID)
		vectors = append(vectors, v)
	}

	found := flat.Search(vectors, q, k, nil)
	hits := make([]driven.VectorHit, len(found))
	for i, f := range found {
		hits[i] = driven.VectorHit{ChunkID: ids[f.Slot], Similarity: float64(f.Score)}
	}
	return hits, nil
}

// filter drops candidates below the similarity threshold or failing the
// metadata filters. The chunk and its document metadata are loaded here
// and carried forward; ranking needs the chunk's creation time and
// enrichment needs the rest. A candidate whose chunk vanished mid-query
// is skipped.
func (s *SearchService) filter(ctx context.Context, hits []driven.VectorHit, opts domain.SearchOptions) ([]candidate, error) {
	var out []candidate
	for i, hit := range hits {
		if hit.Similarity < opts.Threshold {
			// Hits arrive in descending similarity order.
			break
		}

		chunk, err := s.store.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", hit.ChunkID, err)
		}

		meta, err := s.store.LoadMetadata(ctx, hit.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load metadata for chunk %s: %w", hit.ChunkID, err)
		}
		if !opts.Filters.Matches(meta) {
			continue
		}

		out = append(out, candidate{
			chunk:      chunk,
			similarity: hit.Similarity,
			order:      i,
			meta:       meta,
		})
	}
	return out, nil
}

// enrich assembles the final results from the chunks and document
// metadata already loaded during filtering.
func (s *SearchService) enrich(candidates []candidate) []domain.SearchResult {
	results := make([]domain.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, domain.SearchResult{
			ChunkID:       c.chunk.ID,
			Similarity:    c.similarity,
			Content:       c.chunk.Content,
			ArticleNumber: c.chunk.ArticleNumber,
			SectionTitle:  c.chunk.SectionTitle,
			Document:      *c.meta,
		})
	}
	return results
}

// normaliseOptions fills unset options from the configured defaults.
func (s *SearchService) normaliseOptions(opts domain.SearchOptions) domain.SearchOptions {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if opts.TopK <= 0 {
		opts.TopK = s.settings.Search.TopK
	}
	if opts.Threshold <= 0 {
		opts.Threshold = s.settings.Search.Threshold
	}
	if opts.Overfetch <= 0 {
		opts.Overfetch = s.settings.Search.Overfetch
	}
	return opts
}

// isDegraded reports whether a brute-force snapshot is serving a corpus
// large enough that an ANN structure was expected.
func (s *SearchService) isDegraded(info driven.IndexInfo) bool {
	s.mu.RLock()
	threshold := s.settings.Index.BruteForceThreshold
	s.mu.RUnlock()
	return info.Status == domain.IndexStatusBruteForce && threshold > 0 && info.VectorCount >= threshold
}
