package search

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/dgraph-io/ristretto"

	"github.com/esmlabs/extended-memory/internal/vectors"
)

// SimilarityCache memoizes cosine similarities keyed by a stable hash of both
// vectors. Cosine is deterministic for identical inputs, so cached values
// never go stale. The cache is bounded; eviction only costs a recompute.
type SimilarityCache struct {
	cache *ristretto.Cache
}

// NewSimilarityCache builds a cache holding roughly maxEntries similarities.
func NewSimilarityCache(maxEntries int64) (*SimilarityCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &SimilarityCache{cache: c}, nil
}

// Similarity returns the cosine similarity of a and b, consulting the cache.
// A nil receiver computes directly.
func (s *SimilarityCache) Similarity(a, b []float32) float64 {
	if s == nil || s.cache == nil {
		return vectors.CosineSimilarity(a, b)
	}
	key := pairKey(a, b)
	if v, ok := s.cache.Get(key); ok {
		if sim, ok := v.(float64); ok {
			return sim
		}
	}
	sim := vectors.CosineSimilarity(a, b)
	s.cache.Set(key, sim, 1)
	return sim
}

// Close releases the cache's internal goroutines.
func (s *SimilarityCache) Close() {
	if s != nil && s.cache != nil {
		s.cache.Close()
	}
}

func pairKey(a, b []float32) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(a)))
	_, _ = h.Write(buf[:])
	for _, f := range a {
		binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(f))
		_, _ = h.Write(buf[:4])
	}
	binary.LittleEndian.PutUint64(buf[:], uint64(len(b)))
	_, _ = h.Write(buf[:])
	for _, f := range b {
		binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(f))
		_, _ = h.Write(buf[:4])
	}
	return h.Sum64()
}
