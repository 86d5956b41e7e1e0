package vectors

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity_SelfIsOne(t *testing.T) {
	cases := [][]float32{
		{1},
		{1, 2, 3},
		{-0.5, 0.25, 7.5, 3},
	}
	for _, v := range cases {
		assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-9)
	}
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	zero := []float32{0, 0, 0}
	assert.Equal(t, 0.0, CosineSimilarity(zero, zero))
	assert.Equal(t, 0.0, CosineSimilarity(zero, []float32{1, 2, 3}))
}

func TestCosineSimilarity_LengthMismatch(t *testing.T) {
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, []float32{1}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1}, nil))
}

func TestCosineSimilarity_Opposite(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{-1, 0}
	assert.InDelta(t, -1.0, CosineSimilarity(a, b), 1e-9)
}

func TestCosineSimilarity_Orthogonal(t *testing.T) {
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 1.0, Magnitude(v), 1e-6)
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)

	zero := []float32{0, 0}
	assert.Equal(t, zero, Normalize(zero))
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid([]float32{1, 2}, 0))
	assert.True(t, IsValid([]float32{1, 2}, 2))
	assert.False(t, IsValid([]float32{1, 2}, 3))
	assert.False(t, IsValid(nil, 0))
	assert.False(t, IsValid([]float32{float32(math.NaN())}, 0))
	assert.False(t, IsValid([]float32{float32(math.Inf(1))}, 0))
}

func TestDot(t *testing.T) {
	assert.Equal(t, 11.0, Dot([]float32{1, 2}, []float32{3, 4}))
	assert.Equal(t, 0.0, Dot([]float32{1, 2}, []float32{3}))
}
