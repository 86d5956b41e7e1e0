package search

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/esmlabs/extended-memory/internal/model"
)

// Fixed fusion weights for combining the two engines' contributions.
const (
	keywordFusionWeight  = 0.6
	semanticFusionWeight = 0.4
)

// hybridSearch runs keyword and semantic retrieval concurrently and fuses
// the two ranked lists. One side failing degrades to the other's results;
// both failing surfaces an error.
func (s *Service) hybridSearch(ctx context.Context, req *model.SearchRequest) ([]model.SearchResult, error) {
	var (
		kwResults, semResults []model.SearchResult
		kwErr, semErr         error
	)

	// Errors are captured, not returned, so one engine's failure does not
	// cancel the other.
	var g errgroup.Group
	g.Go(func() error {
		kwResults, kwErr = s.keywordSearch(ctx, req)
		return nil
	})
	g.Go(func() error {
		semResults, _, semErr = s.semanticOnly(ctx, req)
		return nil
	})
	_ = g.Wait()

	if kwErr != nil && semErr != nil {
		return nil, fmt.Errorf("hybrid search failed (keyword: %v; semantic: %v): %w",
			kwErr, semErr, model.ErrUnavailable)
	}
	if kwErr != nil {
		s.log.Error().Err(kwErr).Str("query", req.Query).Msg("keyword search failed, degrading to semantic results")
		kwResults = nil
	}
	if semErr != nil {
		s.log.Error().Err(semErr).Str("query", req.Query).Msg("semantic search failed, degrading to keyword results")
		semResults = nil
	}

	merged := mergeResults(kwResults, semResults)
	if len(merged) > req.Limit {
		merged = merged[:req.Limit]
	}
	return merged, nil
}

// mergeResults fuses the two lists by memory identity. Keyword scores
// contribute at 0.6, semantic at 0.4; a memory hit by both gets the capped
// sum and keeps the keyword highlight.
func mergeResults(keyword, semantic []model.SearchResult) []model.SearchResult {
	byID := make(map[string]*model.SearchResult, len(keyword)+len(semantic))

	for _, r := range keyword {
		entry := r
		entry.Score = r.Score * keywordFusionWeight
		entry.MatchType = model.MatchKeyword
		byID[r.Memory.MemoryID] = &entry
	}
	for _, r := range semantic {
		if existing, ok := byID[r.Memory.MemoryID]; ok {
			existing.Score += r.Score * semanticFusionWeight
			if existing.Score > 1 {
				existing.Score = 1
			}
			existing.MatchType = model.MatchBoth
			continue
		}
		entry := r
		entry.Score = r.Score * semanticFusionWeight
		entry.MatchType = model.MatchSemantic
		entry.Highlight = ""
		byID[r.Memory.MemoryID] = &entry
	}

	merged := make([]model.SearchResult, 0, len(byID))
	for _, r := range byID {
		merged = append(merged, *r)
	}
	sortResults(merged)
	return merged
}
