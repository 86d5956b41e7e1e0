package search

import (
	"context"
	"sort"

	"github.com/esmlabs/extended-memory/internal/model"
	"github.com/esmlabs/extended-memory/internal/vectors"
)

const (
	similarityFloor  = 0.1
	similarityWeight = 0.7
	importanceWeight = 0.3
)

// semanticSearch embeds the query and ranks stored embeddings by cosine
// similarity. When no embedding backend is configured it falls back to
// keyword search instead of failing.
func (s *Service) semanticSearch(ctx context.Context, req *model.SearchRequest) ([]model.SearchResult, error) {
	results, unavailable, err := s.semanticOnly(ctx, req)
	if err != nil {
		return nil, err
	}
	if unavailable {
		s.log.Info().Str("query", req.Query).Msg("embeddings unavailable, falling back to keyword search")
		return s.keywordSearch(ctx, req)
	}
	return results, nil
}

// semanticOnly returns the pure vector-similarity ranking. unavailable is
// true when the query could not be embedded; callers decide the fallback.
func (s *Service) semanticOnly(ctx context.Context, req *model.SearchRequest) (_ []model.SearchResult, unavailable bool, _ error) {
	q := s.gateway.Embed(ctx, req.Query)
	if q.Unavailable {
		return nil, true, nil
	}

	candidates, err := s.store.Embeddings().FindWithMemories(ctx, filterFromRequest(req))
	if err != nil {
		return nil, false, err
	}

	// A memory may carry several embeddings (chunked content); keep the best
	// similarity per memory.
	type scored struct {
		memory     *model.Memory
		similarity float64
	}
	best := make(map[string]*scored)
	for _, c := range candidates {
		vec := c.Embedding.Vector
		if !vectors.IsValid(vec, len(q.Vector)) {
			s.log.Warn().
				Str("memory_id", c.Memory.MemoryID).
				Str("embedding_id", c.Embedding.EmbeddingID).
				Msg("skipping malformed or mismatched embedding")
			continue
		}
		sim := s.sims.Similarity(q.Vector, vec)
		if sim <= similarityFloor {
			continue
		}
		if cur, ok := best[c.Memory.MemoryID]; !ok || sim > cur.similarity {
			best[c.Memory.MemoryID] = &scored{memory: c.Memory, similarity: sim}
		}
	}

	ranked := make([]*scored, 0, len(best))
	for _, sc := range best {
		ranked = append(ranked, sc)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a := weightedSemantic(ranked[i].similarity, ranked[i].memory.Importance)
		b := weightedSemantic(ranked[j].similarity, ranked[j].memory.Importance)
		if a != b {
			return a > b
		}
		return ranked[i].memory.MemoryID < ranked[j].memory.MemoryID
	})
	if len(ranked) > req.Limit {
		ranked = ranked[:req.Limit]
	}

	results := make([]model.SearchResult, 0, len(ranked))
	for _, sc := range ranked {
		results = append(results, model.SearchResult{
			Memory:    sc.memory,
			Score:     sc.similarity,
			MatchType: model.MatchSemantic,
		})
	}
	return results, false, nil
}

// weightedSemantic blends similarity with importance for ranking only; the
// reported score stays the raw similarity.
func weightedSemantic(similarity float64, importance int) float64 {
	return similarityWeight*similarity + importanceWeight*(float64(importance)/10)
}
