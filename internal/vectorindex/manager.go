// Package vectorindex implements the vector index port: immutable search
// snapshots published through a single atomic pointer swap.
//
// Readers never lock. A rebuild constructs the next snapshot off to the
// side; in-flight searches see either the old or the new snapshot, never
// a partial one. Deletion marks slots dead until the next full rebuild,
// since the graph structure does not support in-place removal.
package vectorindex

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/qanun-labs/qanun-cli/internal/core/domain"
	"github.com/qanun-labs/qanun-cli/internal/core/ports/driven"
	"github.com/qanun-labs/qanun-cli/internal/logger"
	"github.com/qanun-labs/qanun-cli/internal/vectorindex/distance"
	"github.com/qanun-labs/qanun-cli/internal/vectorindex/flat"
	"github.com/qanun-labs/qanun-cli/internal/vectorindex/hnsw"
)

// Ensure Manager implements the interface.
var _ driven.VectorIndex = (*Manager)(nil)

// cancelCheckInterval is how many graph inserts pass between context
// cancellation checks during a build.
const cancelCheckInterval = 256

// Options configures the manager.
type Options struct {
	// BruteForceThreshold is the corpus size below which no graph is
	// built and searches run an exact scan.
	BruteForceThreshold int

	// M is the HNSW connectivity parameter.
	M int

	// EFConstruction is the HNSW build-time candidate list size.
	EFConstruction int

	// EFSearch is the HNSW query-time candidate list size.
	EFSearch int
}

// DefaultOptions are the default manager parameters.
var DefaultOptions = Options{
	BruteForceThreshold: 1000,
	M:                   16,
	EFConstruction:      200,
	EFSearch:            100,
}

// snapshot is one immutable generation of the index. Arena-style: slots
// are never mutated in place; every writer publishes a fresh snapshot.
type snapshot struct {
	modelID   string
	dimension int
	builtAt   time.Time
	status    domain.IndexStatus

	ids     []string         // slot -> chunk id
	slots   map[string]int   // chunk id -> slot
	vectors [][]float32      // normalised, parallel to ids
	dead    map[int]struct{} // slots excluded from search
	graph   *hnsw.Graph      // nil when serving brute force
}

func (s *snapshot) liveCount() int {
	return len(s.ids) - len(s.dead)
}

func (s *snapshot) info() driven.IndexInfo {
	return driven.IndexInfo{
		ModelID:     s.modelID,
		Dimension:   s.dimension,
		VectorCount: s.liveCount(),
		BuiltAt:     s.builtAt,
		Status:      s.status,
	}
}

// Manager owns the live snapshot and serialises writers.
type Manager struct {
	live    atomic.Pointer[snapshot]
	writeMu sync.Mutex
	opts    Options
}

// Option mutates manager options.
type Option func(*Options)

// WithOptions replaces the whole option set.
func WithOptions(o Options) Option {
	return func(dst *Options) { *dst = o }
}

// NewManager creates an empty index manager.
func NewManager(optFns ...Option) *Manager {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.BruteForceThreshold <= 0 {
		opts.BruteForceThreshold = DefaultOptions.BruteForceThreshold
	}
	return &Manager{opts: opts}
}

// Rebuild constructs a fresh snapshot over the vectors and swaps it in.
// An ANN build failure is retried once with reduced parameters; if that
// fails too, a brute-force snapshot is published and the index serves in
// degraded mode.
func (m *Manager) Rebuild(ctx context.Context, modelID string, dimension int, vectors []domain.ChunkVector) (driven.IndexInfo, error) {
	if modelID == "" || dimension <= 0 {
		return driven.IndexInfo{}, fmt.Errorf("rebuild: %w", domain.ErrInvalidInput)
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	next, err := m.construct(ctx, modelID, dimension, vectors, m.opts)
	if err != nil {
		if ctx.Err() != nil {
			return driven.IndexInfo{}, err
		}

		reduced := m.opts
		reduced.M = max(2, reduced.M/2)
		reduced.EFConstruction = max(reduced.M, reduced.EFConstruction/2)
		logger.Warn("Index build failed (%v), retrying with M=%d efConstruction=%d",
			err, reduced.M, reduced.EFConstruction)

		next, err = m.construct(ctx, modelID, dimension, vectors, reduced)
		if err != nil {
			logger.Error("Index build failed twice (%v), serving brute force", err)
			next, err = m.constructFlat(modelID, dimension, vectors)
			if err != nil {
				return driven.IndexInfo{}, &domain.IndexBuildError{ModelID: modelID, Err: err}
			}
			next.status = domain.IndexStatusBruteForce
		}
	}

	m.live.Store(next)
	return next.info(), nil
}

// construct builds a snapshot, choosing graph or flat by corpus size.
func (m *Manager) construct(ctx context.Context, modelID string, dimension int, vectors []domain.ChunkVector, opts Options) (*snapshot, error) {
	next, err := m.constructFlat(modelID, dimension, vectors)
	if err != nil {
		return nil, err
	}

	if len(next.ids) < opts.BruteForceThreshold {
		// Approximate search offers no benefit at this size.
		return next, nil
	}

	graph := hnsw.New(dimension, func(o *hnsw.Options) {
		o.M = opts.M
		o.EFConstruction = opts.EFConstruction
		o.EFSearch = opts.EFSearch
	})

	for i, v := range next.vectors {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if _, err := graph.Insert(v); err != nil {
			return nil, err
		}
	}

	next.graph = graph
	next.status = domain.IndexStatusReady
	return next, nil
}

// constructFlat builds the normalised vector arena without a graph.
// Zero-norm vectors cannot participate in cosine search and are skipped.
func (m *Manager) constructFlat(modelID string, dimension int, vectors []domain.ChunkVector) (*snapshot, error) {
	next := &snapshot{
		modelID:   modelID,
		dimension: dimension,
		builtAt:   time.Now(),
		status:    domain.IndexStatusBruteForce,
		ids:       make([]string, 0, len(vectors)),
		slots:     make(map[string]int, len(vectors)),
		vectors:   make([][]float32, 0, len(vectors)),
		dead:      map[int]struct{}{},
	}

	for _, cv := range vectors {
		if len(cv.Vector) != dimension {
			return nil, &domain.DimensionMismatchError{Expected: dimension, Actual: len(cv.Vector)}
		}

		normalised, ok := distance.NormalizeL2Copy(cv.Vector)
		if !ok {
			logger.Warn("Skipping zero-norm vector for chunk %s", cv.ChunkID)
			continue
		}

		next.slots[cv.ChunkID] = len(next.ids)
		next.ids = append(next.ids, cv.ChunkID)
		next.vectors = append(next.vectors, normalised)
	}

	return next, nil
}

// Add inserts vectors incrementally. The flat arena supports append under
// copy-on-write; a graph snapshot is rebuilt in full, since inserting
// into a published graph would be visible to concurrent readers.
func (m *Manager) Add(ctx context.Context, vectors []domain.ChunkVector) error {
	if len(vectors) == 0 {
		return nil
	}

	live := m.live.Load()
	if live == nil {
		return fmt.Errorf("add: %w", domain.ErrIndexUnavailable)
	}

	merged := make([]domain.ChunkVector, 0, len(live.ids)+len(vectors))
	replacing := make(map[string]struct{}, len(vectors))
	for _, cv := range vectors {
		replacing[cv.ChunkID] = struct{}{}
	}
	for slot, id := range live.ids {
		if _, dead := live.dead[slot]; dead {
			continue
		}
		if _, replaced := replacing[id]; replaced {
			// Overwrite: the old slot dies, the new vector wins.
			continue
		}
		merged = append(merged, domain.ChunkVector{ChunkID: id, Vector: live.vectors[slot]})
	}
	merged = append(merged, vectors...)

	_, err := m.Rebuild(ctx, live.modelID, live.dimension, merged)
	return err
}

// Delete marks a chunk's slot dead. The vector stops matching immediately
// and is dropped for good at the next rebuild.
func (m *Manager) Delete(_ context.Context, chunkID string) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	live := m.live.Load()
	if live == nil {
		return fmt.Errorf("delete: %w", domain.ErrIndexUnavailable)
	}

	slot, ok := live.slots[chunkID]
	if !ok {
		return nil
	}

	next := *live
	next.dead = make(map[int]struct{}, len(live.dead)+1)
	for s := range live.dead {
		next.dead[s] = struct{}{}
	}
	next.dead[slot] = struct{}{}

	m.live.Store(&next)
	return nil
}

// Search finds the k nearest live vectors by descending cosine
// similarity. With no snapshot or an empty corpus it returns an empty
// list, not an error.
func (m *Manager) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	live := m.live.Load()
	if live == nil || live.liveCount() == 0 || k <= 0 {
		return nil, nil
	}

	if len(query) != live.dimension {
		return nil, &domain.DimensionMismatchError{Expected: live.dimension, Actual: len(query)}
	}

	q, ok := distance.NormalizeL2Copy(query)
	if !ok {
		return nil, fmt.Errorf("search: zero-norm query vector: %w", domain.ErrInvalidInput)
	}

	if live.graph != nil {
		return m.searchGraph(live, q, k)
	}
	return searchFlat(live, q, k), nil
}

// searchGraph queries the ANN structure, overfetching to absorb dead
// slots; an exhausted graph falls back to the exact scan.
func (m *Manager) searchGraph(live *snapshot, q []float32, k int) ([]driven.VectorHit, error) {
	fetch := k + len(live.dead)

	results, err := live.graph.Search(q, fetch, max(m.opts.EFSearch, fetch))
	if err != nil {
		return nil, err
	}

	hits := make([]driven.VectorHit, 0, k)
	for _, r := range results {
		slot := int(r.ID)
		if _, dead := live.dead[slot]; dead {
			continue
		}
		hits = append(hits, driven.VectorHit{
			ChunkID:    live.ids[slot],
			Similarity: float64(1 - r.Distance),
		})
		if len(hits) == k {
			break
		}
	}

	return hits, nil
}

func searchFlat(live *snapshot, q []float32, k int) []driven.VectorHit {
	skip := func(slot int) bool {
		_, dead := live.dead[slot]
		return dead
	}

	found := flat.Search(live.vectors, q, k, skip)

	hits := make([]driven.VectorHit, len(found))
	for i, f := range found {
		hits[i] = driven.VectorHit{
			ChunkID:    live.ids[f.Slot],
			Similarity: float64(f.Score),
		}
	}

	return hits
}

// Info describes the live snapshot.
func (m *Manager) Info() driven.IndexInfo {
	live := m.live.Load()
	if live == nil {
		return driven.IndexInfo{Status: domain.IndexStatusAbsent}
	}
	return live.info()
}

// Close releases resources.
func (m *Manager) Close() error {
	m.live.Store(nil)
	return nil
}
