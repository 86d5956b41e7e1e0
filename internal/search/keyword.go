package search

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/esmlabs/extended-memory/internal/model"
	"github.com/esmlabs/extended-memory/internal/textutil"
)

const (
	maxQueryKeywords = 10
	minKeywordLength = 3
	highlightLength  = 200

	contentWeight = 0.6
	summaryWeight = 0.3
	tagWeight     = 0.1
)

// keywordSearch runs lexical retrieval: extract query keywords, fetch
// candidates matching any of them under the request filters, keep the top
// candidates by composite relevance, then score each against the keywords.
func (s *Service) keywordSearch(ctx context.Context, req *model.SearchRequest) ([]model.SearchResult, error) {
	keywords := textutil.ExtractKeywords(req.Query, maxQueryKeywords, minKeywordLength)
	if len(keywords) == 0 {
		return nil, nil
	}

	filter := filterFromRequest(req)
	filter.Keywords = keywords
	candidates, err := s.store.Memories().Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	// Prefer important, frequently used, recent memories before truncating.
	now := time.Now()
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := compositeRelevance(candidates[i], now), compositeRelevance(candidates[j], now)
		if a != b {
			return a > b
		}
		return candidates[i].MemoryID < candidates[j].MemoryID
	})
	if len(candidates) > req.Limit {
		candidates = candidates[:req.Limit]
	}

	results := make([]model.SearchResult, 0, len(candidates))
	for _, m := range candidates {
		score := keywordScore(m, keywords)
		if score <= 0 {
			continue
		}
		results = append(results, model.SearchResult{
			Memory:    m,
			Score:     score,
			MatchType: model.MatchKeyword,
			Highlight: textutil.Highlight(m.Content, keywords, highlightLength),
		})
	}
	sortResults(results)
	return results, nil
}

// keywordScore is the normalized weighted hit count over content, summary,
// and tags, capped at 1.0.
func keywordScore(m *model.Memory, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	content := strings.ToLower(m.Content)
	var summary string
	if m.Summary != nil {
		summary = strings.ToLower(*m.Summary)
	}
	tags := strings.ToLower(strings.Join(m.Tags, ","))

	var score float64
	for _, kw := range keywords {
		if strings.Contains(content, kw) {
			score += contentWeight
		}
		if summary != "" && strings.Contains(summary, kw) {
			score += summaryWeight
		}
		if tags != "" && strings.Contains(tags, kw) {
			score += tagWeight
		}
	}
	score /= float64(len(keywords))
	if score > 1 {
		score = 1
	}
	return score
}

// compositeRelevance orders candidates before truncation. Recency decays on a
// 30-day half-scale so week-old memories still outrank stale ones.
func compositeRelevance(m *model.Memory, now time.Time) float64 {
	importance := float64(m.Importance) / 10
	access := float64(m.AccessCount) / 100
	if access > 1 {
		access = 1
	}
	ageDays := now.Sub(m.CreationTime).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	recency := 1 / (1 + ageDays/30)
	return 0.3*importance + 0.2*access + 0.5*recency
}

func filterFromRequest(req *model.SearchRequest) model.MemoryFilter {
	return model.MemoryFilter{
		AssistantID:   req.AssistantID,
		IncludeShared: req.IncludeShared,
		MemoryType:    req.MemoryType,
		MinImportance: req.MinImportance,
		Tags:          req.Tags,
		DateFrom:      req.DateFrom,
		DateTo:        req.DateTo,
	}
}

// sortResults orders by score descending, memory ID ascending on ties.
func sortResults(results []model.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Memory.MemoryID < results[j].Memory.MemoryID
	})
}
