// Package hnsw implements a Hierarchical Navigable Small World graph for
// approximate nearest-neighbour search over L2-normalised vectors.
//
// Build is allowed to be slow relative to query. A graph is safe for
// concurrent searches once inserts have finished; the index manager only
// publishes fully built graphs, so readers never observe construction.
package hnsw

import (
	"container/heap"
	"math"
	"math/rand"
	"sync"

	"github.com/qanun-labs/qanun-cli/internal/core/domain"
	"github.com/qanun-labs/qanun-cli/internal/vectorindex/distance"
)

// Options configures graph construction and search.
type Options struct {
	// M is the number of established connections per element during
	// construction. 12-48 is reasonable for text embeddings.
	M int

	// EFConstruction is the candidate list size during build. Larger
	// values improve graph quality at build-time cost.
	EFConstruction int

	// EFSearch is the default candidate list size during search. Results
	// converge to exact as this grows.
	EFSearch int

	// Seed fixes level generation, making builds reproducible.
	Seed int64
}

// DefaultOptions are the default construction parameters.
var DefaultOptions = Options{
	M:              16,
	EFConstruction: 200,
	EFSearch:       100,
	Seed:           1,
}

// Result is a single search hit.
type Result struct {
	// ID is the graph node id, assigned in insertion order.
	ID uint32

	// Distance is the inner-product distance (1 - cosine similarity).
	Distance float32
}

// node is a vertex in the graph.
type node struct {
	id          uint32
	vector      []float32
	layer       int
	connections [][]uint32 // per level, 0..layer
}

// Graph is the HNSW structure.
type Graph struct {
	mu        sync.Mutex // serialises inserts
	dimension int
	mmax      int     // max connections per level
	mmax0     int     // max connections at level 0
	ml        float64 // level generation normalisation factor
	ep        uint32  // entry point node id
	maxLevel  int
	nodes     []*node
	rng       *rand.Rand
	opts      Options
}

// New creates an empty graph for vectors of the given dimension.
func New(dimension int, optFns ...func(o *Options)) *Graph {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.M < 2 {
		// M == 1 would divide by zero in the level factor.
		opts.M = 2
	}
	if opts.EFConstruction < opts.M {
		opts.EFConstruction = opts.M
	}
	if opts.EFSearch < 1 {
		opts.EFSearch = DefaultOptions.EFSearch
	}

	return &Graph{
		dimension: dimension,
		mmax:      opts.M,
		mmax0:     2 * opts.M,
		ml:        1 / math.Log(float64(opts.M)),
		rng:       rand.New(rand.NewSource(opts.Seed)), //nolint:gosec // level draws, not crypto
		opts:      opts,
	}
}

// Len returns the number of inserted vectors.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Insert adds a normalised vector and returns its node id.
func (g *Graph) Insert(v []float32) (uint32, error) {
	if len(v) != g.dimension {
		return 0, &domain.DimensionMismatchError{Expected: g.dimension, Actual: len(v)}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	id := uint32(len(g.nodes))
	layer := int(math.Floor(-math.Log(g.rng.Float64()) * g.ml))

	n := &node{
		id:          id,
		vector:      v,
		layer:       layer,
		connections: make([][]uint32, layer+1),
	}

	if len(g.nodes) == 0 {
		g.nodes = append(g.nodes, n)
		g.ep = id
		g.maxLevel = layer
		return id, nil
	}

	// Greedy descent through the layers above the new node's top layer.
	curr, currDist := g.descend(v, g.nodes[g.ep], g.maxLevel, layer+1)

	for level := min(layer, g.maxLevel); level >= 0; level-- {
		candidates := g.searchLayer(v, queueItem{node: curr.id, distance: currDist}, g.opts.EFConstruction, level)

		neighbours := nearestOf(candidates, g.opts.M)
		n.connections[level] = neighbours

		// The closest candidate seeds the next level down.
		best := candidates.items[0]
		for _, item := range candidates.items[1:] {
			if item.distance < best.distance {
				best = item
			}
		}
		curr, currDist = g.nodes[best.node], best.distance
	}

	g.nodes = append(g.nodes, n)

	// Link neighbours back, pruning their connection lists.
	for level := min(layer, g.maxLevel); level >= 0; level-- {
		for _, neighbour := range n.connections[level] {
			g.link(neighbour, id, level)
		}
	}

	if layer > g.maxLevel {
		g.ep = id
		g.maxLevel = layer
	}

	return id, nil
}

// Search finds the k approximate nearest neighbours of q, closest first.
// ef <= 0 uses the configured EFSearch.
func (g *Graph) Search(q []float32, k, ef int) ([]Result, error) {
	if len(q) != g.dimension {
		return nil, &domain.DimensionMismatchError{Expected: g.dimension, Actual: len(q)}
	}
	if len(g.nodes) == 0 || k <= 0 {
		return nil, nil
	}
	if ef <= 0 {
		ef = g.opts.EFSearch
	}
	if ef < k {
		ef = k
	}

	curr, currDist := g.descend(q, g.nodes[g.ep], g.maxLevel, 1)

	top := g.searchLayer(q, queueItem{node: curr.id, distance: currDist}, ef, 0)

	for top.Len() > k {
		heap.Pop(top)
	}

	results := make([]Result, top.Len())
	for i := top.Len() - 1; i >= 0; i-- {
		item := heap.Pop(top).(queueItem)
		results[i] = Result{ID: item.node, Distance: item.distance}
	}

	return results, nil
}

// descend follows the single shortest path from the entry point down to
// (but not into) the stop level, returning the closest node found.
func (g *Graph) descend(q []float32, entry *node, fromLevel, stopLevel int) (*node, float32) {
	curr := entry
	currDist := distance.InnerProduct(curr.vector, q)

	for level := fromLevel; level >= stopLevel; level-- {
		changed := true
		for changed {
			changed = false

			if level > curr.layer {
				continue
			}
			for _, id := range curr.connections[level] {
				next := g.nodes[id]

				if d := distance.InnerProduct(next.vector, q); d < currDist {
					curr = next
					currDist = d
					changed = true
				}
			}
		}
	}

	return curr, currDist
}

// searchLayer explores one layer greedily from the entry item, keeping
// the ef closest candidates in a max-heap.
func (g *Graph) searchLayer(q []float32, ep queueItem, ef, level int) *priorityQueue {
	visited := make([]bool, len(g.nodes)+1)
	visited[ep.node] = true

	candidates := &priorityQueue{}
	heap.Init(candidates)
	heap.Push(candidates, ep)

	top := &priorityQueue{max: true}
	heap.Init(top)
	heap.Push(top, ep)

	for candidates.Len() > 0 {
		candidate := heap.Pop(candidates).(queueItem)
		if candidate.distance > top.top().distance {
			break
		}

		n := g.nodes[candidate.node]
		if level > n.layer {
			continue
		}

		for _, id := range n.connections[level] {
			if visited[id] {
				continue
			}
			visited[id] = true

			d := distance.InnerProduct(g.nodes[id].vector, q)
			item := queueItem{node: id, distance: d}

			if top.Len() < ef {
				heap.Push(top, item)
				heap.Push(candidates, item)
			} else if d < top.top().distance {
				heap.Pop(top)
				heap.Push(top, item)
				heap.Push(candidates, item)
			}
		}
	}

	return top
}

// link connects node from to node to at the given level, pruning the
// connection list back to the maximum when it overflows.
func (g *Graph) link(from, to uint32, level int) {
	maxConnections := g.mmax
	// The bottom layer allows double the connections.
	if level == 0 {
		maxConnections = g.mmax0
	}

	n := g.nodes[from]
	n.connections[level] = append(n.connections[level], to)

	if len(n.connections[level]) <= maxConnections {
		return
	}

	pruned := &priorityQueue{max: true}
	heap.Init(pruned)

	for _, id := range n.connections[level] {
		heap.Push(pruned, queueItem{
			node:     id,
			distance: distance.InnerProduct(n.vector, g.nodes[id].vector),
		})
	}

	for pruned.Len() > maxConnections {
		heap.Pop(pruned)
	}

	n.connections[level] = make([]uint32, 0, pruned.Len())
	for pruned.Len() > 0 {
		n.connections[level] = append(n.connections[level], heap.Pop(pruned).(queueItem).node)
	}
}

// nearestOf drains the candidate heap down to at most m nearest node ids.
func nearestOf(candidates *priorityQueue, m int) []uint32 {
	tmp := &priorityQueue{max: true}
	heap.Init(tmp)

	for _, item := range candidates.items {
		heap.Push(tmp, item)
	}
	for tmp.Len() > m {
		heap.Pop(tmp)
	}

	ids := make([]uint32, tmp.Len())
	for i := tmp.Len() - 1; i >= 0; i-- {
		ids[i] = heap.Pop(tmp).(queueItem).node
	}

	return ids
}
