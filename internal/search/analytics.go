package search

import (
	"context"
	"sort"
	"strings"

	"github.com/esmlabs/extended-memory/internal/model"
)

const defaultAnalyticsLimit = 10

// Suggestions returns distinct recent queries containing q, newest first.
func (s *Service) Suggestions(ctx context.Context, q, assistantID string, limit int) ([]string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, validationf("q must not be empty")
	}
	if limit <= 0 {
		limit = defaultAnalyticsLimit
	}
	return s.store.SearchLogs().Suggestions(ctx, q, assistantID, limit)
}

// Recent returns the newest search log entries, optionally scoped to one
// assistant.
func (s *Service) Recent(ctx context.Context, assistantID string, limit int) ([]*model.SearchLog, error) {
	if limit <= 0 {
		limit = defaultAnalyticsLimit
	}
	return s.store.SearchLogs().Recent(ctx, assistantID, limit)
}

// PopularTags counts how many memories carry each tag. Aggregation is by
// memory identifier, so two memories sharing an identical tag list still
// count separately.
func (s *Service) PopularTags(ctx context.Context, assistantID string, limit int) ([]model.TagCount, error) {
	if limit <= 0 {
		limit = defaultAnalyticsLimit
	}
	mems, err := s.store.Memories().Find(ctx, model.MemoryFilter{
		AssistantID:   assistantID,
		IncludeShared: assistantID != "",
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, m := range mems {
		seen := make(map[string]bool, len(m.Tags))
		for _, t := range m.Tags {
			t = strings.ToLower(strings.TrimSpace(t))
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			counts[t]++
		}
	}

	out := make([]model.TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, model.TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
