// Package flat provides exact brute-force cosine search over a slice of
// normalised vectors. It is the correctness baseline every approximate
// configuration is validated against, and the serving path for corpora
// too small for an ANN structure to pay off.
package flat

import (
	"container/heap"

	"github.com/qanun-labs/qanun-cli/internal/vectorindex/distance"
)

// Hit is a single scan result.
type Hit struct {
	// Slot is the position of the matched vector in the scanned slice.
	Slot int

	// Score is the cosine similarity (inner product of normalised vectors).
	Score float32
}

// hitHeap is a min-heap by score, so the worst of the current top-k sits
// on top and is cheap to displace.
type hitHeap []Hit

func (h hitHeap) Len() int { return len(h) }

// Ties prefer the lower slot, keeping scans deterministic.
func (h hitHeap) Less(i, j int) bool {
	if h[i].Score == h[j].Score {
		return h[i].Slot > h[j].Slot
	}
	return h[i].Score < h[j].Score
}
func (h hitHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *hitHeap) Push(x any)   { *h = append(*h, x.(Hit)) }

func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Search scans vectors for the k nearest to query by descending cosine
// similarity. Slots for which skip returns true are ignored; skip may be
// nil. Both query and vectors must be L2-normalised.
func Search(vectors [][]float32, query []float32, k int, skip func(slot int) bool) []Hit {
	if k <= 0 || len(vectors) == 0 {
		return nil
	}

	h := make(hitHeap, 0, k)
	heap.Init(&h)

	for slot, v := range vectors {
		if skip != nil && skip(slot) {
			continue
		}

		score := distance.Dot(query, v)

		if len(h) < k {
			heap.Push(&h, Hit{Slot: slot, Score: score})
			continue
		}
		if score > h[0].Score {
			heap.Pop(&h)
			heap.Push(&h, Hit{Slot: slot, Score: score})
		}
	}

	// Drain the heap into descending score order.
	hits := make([]Hit, len(h))
	for i := len(h) - 1; i >= 0; i-- {
		hits[i] = heap.Pop(&h).(Hit)
	}

	return hits
}
