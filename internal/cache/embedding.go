package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// EmbeddingCache is a content-addressed store of computed vectors.
// The key is a SHA-256 of normalised content plus the model id, so
// near-duplicate chunks across documents share entries.
type EmbeddingCache struct {
	lru *LRU
}

// NewEmbeddingCache creates an embedding cache bounded to capacity entries.
func NewEmbeddingCache(capacity int) *EmbeddingCache {
	return &EmbeddingCache{lru: NewLRU(capacity)}
}

// Get returns the cached vector for content under modelID, or false.
func (c *EmbeddingCache) Get(content, modelID string) ([]float32, bool) {
	v, ok := c.lru.Get(Key(content, modelID))
	if !ok {
		return nil, false
	}
	vec, ok := v.([]float32)
	return vec, ok
}

// Put stores a vector for content under modelID.
func (c *EmbeddingCache) Put(content, modelID string, vector []float32) {
	c.lru.Put(Key(content, modelID), modelID, vector)
}

// Invalidate removes every entry for modelID. Called when the configured
// model changes: entries from the old model are wrong, not merely stale.
func (c *EmbeddingCache) Invalidate(modelID string) {
	c.lru.Invalidate(modelID)
}

// Drop removes all entries regardless of model. Used when the cache is
// suspected corrupt; it is rebuilt lazily from recomputed embeddings.
func (c *EmbeddingCache) Drop() {
	c.lru.Invalidate("")
}

// Len returns the number of cached vectors.
func (c *EmbeddingCache) Len() int {
	return c.lru.Len()
}

// Key derives the cache key for content under modelID.
func Key(content, modelID string) string {
	sum := sha256.Sum256([]byte(Normalise(content)))
	return hex.EncodeToString(sum[:]) + ":" + modelID
}

// Arabic combining marks stripped during normalisation: tashkeel
// (fathatan through sukun) plus the superscript alef.
func isTashkeel(r rune) bool {
	return (r >= 0x064B && r <= 0x0652) || r == 0x0670
}

// Normalise canonicalises text for content addressing: whitespace runs
// collapse to a single space, tashkeel is stripped, alef variants fold to
// bare alef and teh marbuta to heh. Near-duplicates produced by OCR or
// formatting differences then hash identically.
func Normalise(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	space := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case isTashkeel(r):
			continue
		case r == 'أ' || r == 'إ' || r == 'آ':
			r = 'ا'
		case r == 'ة':
			r = 'ه'
		case r == 'ى':
			r = 'ي'
		default:
			r = unicode.ToLower(r)
		}

		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}

	return b.String()
}
