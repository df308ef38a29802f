package hnsw

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qanun-labs/qanun-cli/internal/core/domain"
	"github.com/qanun-labs/qanun-cli/internal/vectorindex/distance"
	"github.com/qanun-labs/qanun-cli/internal/vectorindex/flat"
)

func randomVectors(n, dim int, seed int64) [][]float32 {
	rng := rand.New(rand.NewSource(seed))
	vectors := make([][]float32, n)
	for i := range vectors {
		v := make([]float32, dim)
		for j := range v {
			v[j] = rng.Float32()*2 - 1
		}
		distance.NormalizeL2InPlace(v)
		vectors[i] = v
	}
	return vectors
}

func TestGraph_InsertAssignsSequentialIDs(t *testing.T) {
	g := New(4)

	for i, v := range randomVectors(5, 4, 1) {
		id, err := g.Insert(v)
		require.NoError(t, err)
		assert.Equal(t, uint32(i), id)
	}
	assert.Equal(t, 5, g.Len())
}

func TestGraph_InsertDimensionMismatch(t *testing.T) {
	g := New(4)

	_, err := g.Insert([]float32{1, 0})

	var dimErr *domain.DimensionMismatchError
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 4, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Actual)
}

func TestGraph_SearchEmpty(t *testing.T) {
	g := New(4)

	results, err := g.Search([]float32{1, 0, 0, 0}, 5, 0)

	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestGraph_SearchFindsSelf(t *testing.T) {
	g := New(8)
	vectors := randomVectors(100, 8, 2)

	for _, v := range vectors {
		_, err := g.Insert(v)
		require.NoError(t, err)
	}

	for i := 0; i < 100; i += 17 {
		results, err := g.Search(vectors[i], 1, 200)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, uint32(i), results[0].ID, "exact vector should be its own nearest neighbour")
		assert.InDelta(t, 0.0, results[0].Distance, 1e-5)
	}
}

func TestGraph_SearchAscendingDistance(t *testing.T) {
	g := New(8)
	for _, v := range randomVectors(200, 8, 3) {
		_, err := g.Insert(v)
		require.NoError(t, err)
	}

	q := randomVectors(1, 8, 99)[0]
	results, err := g.Search(q, 10, 200)
	require.NoError(t, err)
	require.Len(t, results, 10)

	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Distance, results[i].Distance)
	}
}

func TestGraph_RecallAgainstExactScan(t *testing.T) {
	const n, dim, k = 500, 16, 10
	g := New(dim, func(o *Options) {
		o.M = 16
		o.EFConstruction = 200
		o.Seed = 1
	})

	vectors := randomVectors(n, dim, 4)
	for _, v := range vectors {
		_, err := g.Insert(v)
		require.NoError(t, err)
	}

	queries := randomVectors(20, dim, 5)
	found, total := 0, 0
	for _, q := range queries {
		exact := flat.Search(vectors, q, k, nil)
		want := make(map[uint32]bool, k)
		for _, hit := range exact {
			want[uint32(hit.Slot)] = true
		}

		approx, err := g.Search(q, k, 300)
		require.NoError(t, err)

		for _, r := range approx {
			if want[r.ID] {
				found++
			}
		}
		total += k
	}

	recall := float64(found) / float64(total)
	assert.Greater(t, recall, 0.9, "recall@%d was %.2f", k, recall)
}

func TestGraph_SearchKBoundsResults(t *testing.T) {
	g := New(4)
	for _, v := range randomVectors(20, 4, 6) {
		_, err := g.Insert(v)
		require.NoError(t, err)
	}

	results, err := g.Search(randomVectors(1, 4, 7)[0], 5, 0)
	require.NoError(t, err)
	assert.Len(t, results, 5)

	// k larger than the corpus returns everything.
	results, err = g.Search(randomVectors(1, 4, 8)[0], 50, 0)
	require.NoError(t, err)
	assert.Len(t, results, 20)
}

func TestNew_ClampsDegenerateOptions(t *testing.T) {
	g := New(4, func(o *Options) {
		o.M = 1
		o.EFConstruction = 0
		o.EFSearch = 0
	})

	assert.Equal(t, 2, g.opts.M)
	assert.GreaterOrEqual(t, g.opts.EFConstruction, g.opts.M)
	assert.Equal(t, DefaultOptions.EFSearch, g.opts.EFSearch)
}
