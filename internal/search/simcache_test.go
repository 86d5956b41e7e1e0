package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimilarityCacheMatchesDirectComputation(t *testing.T) {
	cache, err := NewSimilarityCache(128)
	require.NoError(t, err)
	defer cache.Close()

	a := []float32{1, 0, 0}
	b := []float32{0.5, 0.5, 0}

	// Admission is asynchronous, so only the value is asserted, repeatedly.
	first := cache.Similarity(a, b)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, cache.Similarity(a, b))
	}
	assert.InDelta(t, 0.7071, first, 1e-3)
}

func TestSimilarityCacheNilReceiver(t *testing.T) {
	var cache *SimilarityCache
	assert.InDelta(t, 1.0, cache.Similarity([]float32{1, 1}, []float32{1, 1}), 1e-9)
}

func TestPairKeyDistinguishesOrderAndBoundary(t *testing.T) {
	a := []float32{1, 2}
	b := []float32{3}
	// (1,2|3) and (1|2,3) must hash differently.
	assert.NotEqual(t, pairKey(a, b), pairKey([]float32{1}, []float32{2, 3}))
	assert.NotEqual(t, pairKey(a, b), pairKey(b, a))
}
