// Package cache provides the bounded in-memory caches used by the
// embedding pipeline: a sharded LRU primitive, the content-addressed
// embedding cache, and the query result cache.
package cache

import (
	"container/list"
	"hash/fnv"
	"sync"
)

// shardCount is the number of LRU shards. Sharding keeps unrelated keys
// from serialising on one mutex.
const shardCount = 16

// entry is a single cached value with its key and model tag.
type entry struct {
	key     string
	modelID string
	value   any
}

// shard is one independently locked LRU segment.
type shard struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List // front = most recently used
}

func newShard(capacity int) *shard {
	return &shard{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

func (s *shard) get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[key]
	if !ok {
		return nil, false
	}
	s.order.MoveToFront(el)
	return el.Value.(*entry).value, true
}

func (s *shard) put(key, modelID string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[key]; ok {
		el.Value.(*entry).value = value
		s.order.MoveToFront(el)
		return
	}

	s.items[key] = s.order.PushFront(&entry{key: key, modelID: modelID, value: value})

	// Evict least recently used. Eviction only ever causes a miss;
	// values are recomputable from content.
	for s.order.Len() > s.capacity {
		back := s.order.Back()
		if back == nil {
			break
		}
		s.order.Remove(back)
		delete(s.items, back.Value.(*entry).key)
	}
}

func (s *shard) invalidate(modelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next *list.Element
	for el := s.order.Front(); el != nil; el = next {
		next = el.Next()
		e := el.Value.(*entry)
		if modelID == "" || e.modelID == modelID {
			s.order.Remove(el)
			delete(s.items, e.key)
		}
	}
}

func (s *shard) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// LRU is a sharded least-recently-used cache bounded by entry count.
type LRU struct {
	shards [shardCount]*shard
}

// NewLRU creates an LRU cache holding at most capacity entries.
func NewLRU(capacity int) *LRU {
	if capacity < shardCount {
		capacity = shardCount
	}
	per := capacity / shardCount

	c := &LRU{}
	for i := range c.shards {
		c.shards[i] = newShard(per)
	}
	return c
}

func (c *LRU) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key)) //nolint:errcheck // fnv never fails
	return c.shards[h.Sum32()%shardCount]
}

// Get returns the cached value for key, or false on a miss.
// Unknown keys miss silently.
func (c *LRU) Get(key string) (any, bool) {
	return c.shardFor(key).get(key)
}

// Put stores value under key, tagged with modelID for invalidation.
func (c *LRU) Put(key, modelID string, value any) {
	c.shardFor(key).put(key, modelID, value)
}

// Invalidate removes every entry tagged with modelID.
// An empty modelID drops the whole cache.
func (c *LRU) Invalidate(modelID string) {
	for _, s := range c.shards {
		s.invalidate(modelID)
	}
}

// Len returns the number of cached entries.
func (c *LRU) Len() int {
	n := 0
	for _, s := range c.shards {
		n += s.len()
	}
	return n
}
