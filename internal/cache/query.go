package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/qanun-labs/qanun-cli/internal/core/domain"
)

// QueryCache memoises ranked result lists per query, model, filter set and
// index snapshot. It is purely an optimisation, never a source of truth:
// a rebuilt snapshot changes the key, so stale entries simply stop being
// looked up and age out through LRU eviction.
type QueryCache struct {
	lru *LRU
}

// NewQueryCache creates a query cache bounded to capacity entries.
func NewQueryCache(capacity int) *QueryCache {
	return &QueryCache{lru: NewLRU(capacity)}
}

// QueryKey derives the cache key for a query under a model, filter set,
// options and snapshot generation.
func QueryKey(query, modelID string, opts domain.SearchOptions, snapshotAt time.Time) string {
	sum := sha256.Sum256([]byte(Normalise(query)))
	return hex.EncodeToString(sum[:]) +
		":" + modelID +
		":" + opts.Filters.Signature() +
		":" + strconv.Itoa(opts.TopK) +
		":" + strconv.FormatFloat(opts.Threshold, 'f', -1, 64) +
		":" + strconv.FormatInt(snapshotAt.UnixNano(), 10)
}

// Get returns the cached results for key, or false.
func (c *QueryCache) Get(key string) ([]domain.SearchResult, bool) {
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	results, ok := v.([]domain.SearchResult)
	return results, ok
}

// Put stores results under key.
func (c *QueryCache) Put(key, modelID string, results []domain.SearchResult) {
	c.lru.Put(key, modelID, results)
}

// Invalidate removes every entry for modelID.
func (c *QueryCache) Invalidate(modelID string) {
	c.lru.Invalidate(modelID)
}
