package distance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDot(t *testing.T) {
	assert.InDelta(t, 1.0, Dot([]float32{1, 0}, []float32{1, 0}), 1e-6)
	assert.InDelta(t, 0.0, Dot([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, Dot([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	assert.InDelta(t, 11.0, Dot([]float32{1, 2}, []float32{3, 4}), 1e-6)
}

func TestInnerProduct(t *testing.T) {
	// Identical normalised vectors are at distance zero.
	assert.InDelta(t, 0.0, InnerProduct([]float32{0, 1}, []float32{0, 1}), 1e-6)
	// Orthogonal vectors are at distance one.
	assert.InDelta(t, 1.0, InnerProduct([]float32{1, 0}, []float32{0, 1}), 1e-6)
	// Opposite vectors are at distance two.
	assert.InDelta(t, 2.0, InnerProduct([]float32{1, 0}, []float32{-1, 0}), 1e-6)
}

func TestNormalizeL2InPlace(t *testing.T) {
	v := []float32{3, 4}
	require.True(t, NormalizeL2InPlace(v))

	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
	assert.InDelta(t, 1.0, math.Sqrt(float64(Dot(v, v))), 1e-6)
}

func TestNormalizeL2InPlace_ZeroNorm(t *testing.T) {
	assert.False(t, NormalizeL2InPlace([]float32{0, 0, 0}))
	assert.False(t, NormalizeL2InPlace(nil))
}

func TestNormalizeL2Copy(t *testing.T) {
	src := []float32{3, 4}

	dst, ok := NormalizeL2Copy(src)
	require.True(t, ok)

	// Source untouched.
	assert.Equal(t, []float32{3, 4}, src)
	assert.InDelta(t, 0.6, dst[0], 1e-6)

	_, ok = NormalizeL2Copy([]float32{0})
	assert.False(t, ok)
}
