package hnsw

import "container/heap"

// Compile time check to ensure priorityQueue satisfies the heap interface.
var _ heap.Interface = (*priorityQueue)(nil)

// queueItem is an element in the candidate queues.
type queueItem struct {
	node     uint32  // graph node id
	distance float32 // priority
}

// priorityQueue holds candidates ordered by distance. With max set it is
// a max-heap (worst candidate on top), otherwise a min-heap.
type priorityQueue struct {
	max   bool
	items []queueItem
}

// Len returns the number of elements in the priority queue.
func (pq *priorityQueue) Len() int { return len(pq.items) }

// Less reports whether element i sorts before element j.
func (pq *priorityQueue) Less(i, j int) bool {
	if pq.max {
		return pq.items[i].distance > pq.items[j].distance
	}
	return pq.items[i].distance < pq.items[j].distance
}

// Swap swaps the elements with indexes i and j.
func (pq *priorityQueue) Swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
}

// Push adds x to the priority queue.
func (pq *priorityQueue) Push(x any) {
	pq.items = append(pq.items, x.(queueItem))
}

// Pop removes and returns the top-priority element.
func (pq *priorityQueue) Pop() any {
	old := pq.items
	n := len(old)
	item := old[n-1]
	pq.items = old[:n-1]
	return item
}

// top returns the highest-priority element without removing it.
func (pq *priorityQueue) top() queueItem {
	return pq.items[0]
}
