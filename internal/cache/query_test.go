package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qanun-labs/qanun-cli/internal/core/domain"
)

func TestQueryKey_Components(t *testing.T) {
	at := time.Now()
	opts := domain.SearchOptions{TopK: 10, Threshold: 0.7}

	base := QueryKey("فسخ العقد", "m1", opts, at)

	// Same inputs, same key.
	assert.Equal(t, base, QueryKey("فسخ العقد", "m1", opts, at))

	// Normalised query variants share a key.
	assert.Equal(t, base, QueryKey("  فسخ   العقد ", "m1", opts, at))

	// Any varying component changes the key.
	assert.NotEqual(t, base, QueryKey("فسخ العقد", "m2", opts, at))
	assert.NotEqual(t, base, QueryKey("فسخ العقد", "m1", opts, at.Add(time.Nanosecond)))

	changed := opts
	changed.TopK = 20
	assert.NotEqual(t, base, QueryKey("فسخ العقد", "m1", changed, at))

	changed = opts
	changed.Threshold = 0.5
	assert.NotEqual(t, base, QueryKey("فسخ العقد", "m1", changed, at))

	changed = opts
	changed.Filters.DocType = "law"
	assert.NotEqual(t, base, QueryKey("فسخ العقد", "m1", changed, at))
}

func TestQueryCache_GetPut(t *testing.T) {
	c := NewQueryCache(32)
	key := QueryKey("q", "m1", domain.SearchOptions{TopK: 5}, time.Now())

	_, ok := c.Get(key)
	assert.False(t, ok)

	results := []domain.SearchResult{{ChunkID: "c1", Similarity: 0.9}}
	c.Put(key, "m1", results)

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, results, got)
}

func TestQueryCache_Invalidate(t *testing.T) {
	c := NewQueryCache(32)
	at := time.Now()
	k1 := QueryKey("q1", "m1", domain.SearchOptions{}, at)
	k2 := QueryKey("q2", "m2", domain.SearchOptions{}, at)

	c.Put(k1, "m1", []domain.SearchResult{{ChunkID: "a"}})
	c.Put(k2, "m2", []domain.SearchResult{{ChunkID: "b"}})

	c.Invalidate("m1")

	_, ok := c.Get(k1)
	assert.False(t, ok)
	_, ok = c.Get(k2)
	assert.True(t, ok)
}
