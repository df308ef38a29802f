package flat

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qanun-labs/qanun-cli/internal/vectorindex/distance"
)

func TestSearch_TopKDescending(t *testing.T) {
	vectors := [][]float32{
		{1, 0},                // slot 0, score 1.0
		{0, 1},                // slot 1, score 0.0
		{0.7071, 0.7071},      // slot 2, score ~0.707
		{-1, 0},               // slot 3, score -1.0
		{0.9486833, 0.316227}, // slot 4, score ~0.949
	}
	query := []float32{1, 0}

	hits := Search(vectors, query, 3, nil)

	require.Len(t, hits, 3)
	assert.Equal(t, 0, hits[0].Slot)
	assert.Equal(t, 4, hits[1].Slot)
	assert.Equal(t, 2, hits[2].Slot)
	assert.True(t, hits[0].Score >= hits[1].Score && hits[1].Score >= hits[2].Score)
}

func TestSearch_KLargerThanCorpus(t *testing.T) {
	vectors := [][]float32{{1, 0}, {0, 1}}

	hits := Search(vectors, []float32{1, 0}, 10, nil)

	assert.Len(t, hits, 2)
}

func TestSearch_Skip(t *testing.T) {
	vectors := [][]float32{{1, 0}, {0.9, 0.1}, {0, 1}}
	skip := func(slot int) bool { return slot == 0 }

	hits := Search(vectors, []float32{1, 0}, 2, skip)

	require.Len(t, hits, 2)
	assert.Equal(t, 1, hits[0].Slot)
	assert.Equal(t, 2, hits[1].Slot)
}

func TestSearch_EmptyAndZeroK(t *testing.T) {
	assert.Nil(t, Search(nil, []float32{1}, 3, nil))
	assert.Nil(t, Search([][]float32{{1}}, []float32{1}, 0, nil))
}

func TestSearch_TiesPreferLowerSlot(t *testing.T) {
	vectors := [][]float32{{1, 0}, {1, 0}, {1, 0}}

	hits := Search(vectors, []float32{1, 0}, 2, nil)

	require.Len(t, hits, 2)
	assert.Equal(t, 0, hits[0].Slot)
	assert.Equal(t, 1, hits[1].Slot)
}

func TestSearch_MatchesNaiveScan(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const dim, n, k = 8, 200, 10

	vectors := make([][]float32, n)
	for i := range vectors {
		v := make([]float32, dim)
		for j := range v {
			v[j] = rng.Float32()*2 - 1
		}
		distance.NormalizeL2InPlace(v)
		vectors[i] = v
	}
	query := make([]float32, dim)
	for j := range query {
		query[j] = rng.Float32()*2 - 1
	}
	distance.NormalizeL2InPlace(query)

	hits := Search(vectors, query, k, nil)
	require.Len(t, hits, k)

	// Naive reference: sort all scores descending.
	type scored struct {
		slot  int
		score float32
	}
	all := make([]scored, n)
	for i, v := range vectors {
		all[i] = scored{slot: i, score: distance.Dot(query, v)}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].score > all[j].score })

	for i := range hits {
		assert.Equal(t, all[i].slot, hits[i].Slot)
		assert.InDelta(t, all[i].score, hits[i].Score, 1e-6)
	}
}
