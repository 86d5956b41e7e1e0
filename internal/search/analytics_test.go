package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esmlabs/extended-memory/internal/model"
	"github.com/esmlabs/extended-memory/internal/store/storetest"
)

func TestPopularTagsAggregatesByMemory(t *testing.T) {
	fake := storetest.New()
	// Two memories with identical tag lists still count as two.
	fake.SeedMemory(&model.Memory{AssistantID: "a", Content: "x", Importance: 5, Tags: []string{"go", "infra"}})
	fake.SeedMemory(&model.Memory{AssistantID: "a", Content: "y", Importance: 5, Tags: []string{"go", "infra"}})
	fake.SeedMemory(&model.Memory{AssistantID: "a", Content: "z", Importance: 5, Tags: []string{"go"}})

	svc := newTestService(t, fake, nil)
	tags, err := svc.PopularTags(context.Background(), "a", 10)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, model.TagCount{Tag: "go", Count: 3}, tags[0])
	assert.Equal(t, model.TagCount{Tag: "infra", Count: 2}, tags[1])
}

func TestPopularTagsLimit(t *testing.T) {
	fake := storetest.New()
	fake.SeedMemory(&model.Memory{AssistantID: "a", Content: "x", Importance: 5, Tags: []string{"b", "a", "c"}})

	svc := newTestService(t, fake, nil)
	tags, err := svc.PopularTags(context.Background(), "a", 2)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	// Equal counts order alphabetically.
	assert.Equal(t, "a", tags[0].Tag)
	assert.Equal(t, "b", tags[1].Tag)
}

func TestSuggestionsRequireQuery(t *testing.T) {
	svc := newTestService(t, storetest.New(), nil)
	_, err := svc.Suggestions(context.Background(), "  ", "", 5)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestSuggestionsAndRecent(t *testing.T) {
	fake := storetest.New()
	svc := newTestService(t, fake, nil)
	fake.SeedMemory(&model.Memory{AssistantID: "a", Content: "postgres vacuum", Importance: 5})

	for _, q := range []string{"postgres vacuum", "postgres tuning", "redis"} {
		_, err := svc.Search(context.Background(), &model.SearchRequest{
			Query: q, AssistantID: "a", SearchType: model.SearchKeyword,
		})
		require.NoError(t, err)
	}
	require.Eventually(t, func() bool { return len(fake.Logs()) == 3 }, time.Second, 10*time.Millisecond)

	sugg, err := svc.Suggestions(context.Background(), "postgres", "a", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"postgres vacuum", "postgres tuning"}, sugg)

	recent, err := svc.Recent(context.Background(), "a", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
}
