package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esmlabs/extended-memory/internal/embeddings"
	"github.com/esmlabs/extended-memory/internal/model"
	"github.com/esmlabs/extended-memory/internal/store/storetest"
)

// stubProvider returns a fixed vector for every embed call, or fails.
type stubProvider struct {
	vec  []float32
	fail bool
}

func (p *stubProvider) Embed(_ context.Context, _ string) ([]float32, error) {
	if p.fail {
		return nil, errors.New("provider down")
	}
	return p.vec, nil
}

func (p *stubProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if p.fail {
		return nil, errors.New("provider down")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = p.vec
	}
	return out, nil
}

func newTestService(t *testing.T, fake *storetest.Fake, provider embeddings.Provider) *Service {
	t.Helper()
	gw := embeddings.NewGateway(provider, "test-model", zerolog.Nop())
	return NewService(fake, gw, nil, nil, 5*time.Second, zerolog.Nop())
}

func str(s string) *string { return &s }

func TestSearchValidation(t *testing.T) {
	svc := newTestService(t, storetest.New(), nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  model.SearchRequest
	}{
		{"empty query", model.SearchRequest{Query: "   "}},
		{"limit too large", model.SearchRequest{Query: "go", Limit: 101}},
		{"negative limit", model.SearchRequest{Query: "go", Limit: -1}},
		{"unknown mode", model.SearchRequest{Query: "go", SearchType: "fuzzy"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			_, err := svc.Search(ctx, &req)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.True(t, errors.Is(err, model.ErrValidation))
		})
	}

	from := time.Now()
	to := from.Add(-time.Hour)
	_, err := svc.Search(ctx, &model.SearchRequest{Query: "go", DateFrom: &from, DateTo: &to})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestKeywordSearchSingleMatch(t *testing.T) {
	fake := storetest.New()
	fake.SeedMemory(&model.Memory{
		AssistantID: "assistant-a",
		Content:     "Python programming patterns",
		MemoryType:  "general",
		Importance:  8,
	})
	fake.SeedMemory(&model.Memory{
		AssistantID: "assistant-b",
		Content:     "Cooking with cast iron",
		MemoryType:  "general",
		Importance:  5,
	})

	svc := newTestService(t, fake, nil)
	resp, err := svc.Search(context.Background(), &model.SearchRequest{
		Query:       "python",
		AssistantID: "assistant-a",
		SearchType:  model.SearchKeyword,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, model.MatchKeyword, resp.Results[0].MatchType)
	assert.Greater(t, resp.Results[0].Score, 0.0)
	assert.Contains(t, resp.Results[0].Highlight, "Python")
	assert.Equal(t, 1, resp.TotalCount)
}

func TestKeywordSearchStopWordsOnlyQuery(t *testing.T) {
	fake := storetest.New()
	fake.SeedMemory(&model.Memory{AssistantID: "a", Content: "the and or", Importance: 5})

	svc := newTestService(t, fake, nil)
	resp, err := svc.Search(context.Background(), &model.SearchRequest{
		Query:      "the and",
		SearchType: model.SearchKeyword,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestSemanticFallsBackWhenUnavailable(t *testing.T) {
	fake := storetest.New()
	fake.SeedMemory(&model.Memory{
		AssistantID: "a",
		Content:     "database indexing strategies",
		Importance:  6,
	})

	// No provider configured: the gateway reports Unavailable.
	svc := newTestService(t, fake, nil)
	resp, err := svc.Search(context.Background(), &model.SearchRequest{
		Query:      "database",
		SearchType: model.SearchSemantic,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, model.MatchKeyword, resp.Results[0].MatchType)
}

func TestSemanticSearchRanksBySimilarity(t *testing.T) {
	fake := storetest.New()
	near := fake.SeedMemory(&model.Memory{AssistantID: "a", Content: "vector search", Importance: 5})
	far := fake.SeedMemory(&model.Memory{AssistantID: "a", Content: "unrelated", Importance: 9})
	fake.SeedEmbedding(near.MemoryID, []float32{1, 0, 0})
	fake.SeedEmbedding(far.MemoryID, []float32{0, 1, 0})

	svc := newTestService(t, fake, &stubProvider{vec: []float32{1, 0, 0}})
	resp, err := svc.Search(context.Background(), &model.SearchRequest{
		Query:      "vector",
		SearchType: model.SearchSemantic,
	})
	require.NoError(t, err)
	// Orthogonal embedding sits below the similarity floor and is dropped.
	require.Len(t, resp.Results, 1)
	assert.Equal(t, near.MemoryID, resp.Results[0].Memory.MemoryID)
	assert.Equal(t, model.MatchSemantic, resp.Results[0].MatchType)
	assert.InDelta(t, 1.0, resp.Results[0].Score, 1e-9)
}

func TestSemanticSearchSkipsMalformedVectors(t *testing.T) {
	fake := storetest.New()
	good := fake.SeedMemory(&model.Memory{AssistantID: "a", Content: "good", Importance: 5})
	bad := fake.SeedMemory(&model.Memory{AssistantID: "a", Content: "bad", Importance: 5})
	fake.SeedEmbedding(good.MemoryID, []float32{1, 0, 0})
	fake.SeedEmbedding(bad.MemoryID, []float32{1, 0}) // wrong dimension

	svc := newTestService(t, fake, &stubProvider{vec: []float32{1, 0, 0}})
	resp, err := svc.Search(context.Background(), &model.SearchRequest{
		Query:      "anything",
		SearchType: model.SearchSemantic,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, good.MemoryID, resp.Results[0].Memory.MemoryID)
}

func TestHybridMergesBothSignals(t *testing.T) {
	fake := storetest.New()
	both := fake.SeedMemory(&model.Memory{
		AssistantID: "a",
		Content:     "database tuning notes",
		Summary:     str("database performance"),
		Importance:  7,
	})
	kwOnly := fake.SeedMemory(&model.Memory{
		AssistantID: "a",
		Content:     "database backup checklist",
		Importance:  5,
	})
	fake.SeedEmbedding(both.MemoryID, []float32{1, 0})

	svc := newTestService(t, fake, &stubProvider{vec: []float32{1, 0}})
	resp, err := svc.Search(context.Background(), &model.SearchRequest{
		Query:      "database",
		SearchType: model.SearchHybrid,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	byID := map[string]model.SearchResult{}
	for _, r := range resp.Results {
		byID[r.Memory.MemoryID] = r
	}
	merged := byID[both.MemoryID]
	assert.Equal(t, model.MatchBoth, merged.MatchType)
	// Keyword contribution plus the full-similarity semantic boost.
	assert.Greater(t, merged.Score, 0.4)
	assert.Equal(t, model.MatchKeyword, byID[kwOnly.MemoryID].MatchType)
	assert.Equal(t, both.MemoryID, resp.Results[0].Memory.MemoryID)
}

func TestHybridDedupAndScoreBounds(t *testing.T) {
	fake := storetest.New()
	for i := 0; i < 8; i++ {
		m := fake.SeedMemory(&model.Memory{
			AssistantID: "a",
			Content:     "kubernetes cluster operations",
			Importance:  1 + i,
		})
		fake.SeedEmbedding(m.MemoryID, []float32{1, 0})
	}

	svc := newTestService(t, fake, &stubProvider{vec: []float32{1, 0}})
	resp, err := svc.Search(context.Background(), &model.SearchRequest{
		Query:      "kubernetes cluster",
		SearchType: model.SearchHybrid,
	})
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, r := range resp.Results {
		assert.False(t, seen[r.Memory.MemoryID], "duplicate memory in results")
		seen[r.Memory.MemoryID] = true
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
}

func TestHybridDegradesWhenProviderFails(t *testing.T) {
	fake := storetest.New()
	fake.SeedMemory(&model.Memory{AssistantID: "a", Content: "golang concurrency", Importance: 5})

	svc := newTestService(t, fake, &stubProvider{fail: true})
	resp, err := svc.Search(context.Background(), &model.SearchRequest{
		Query:      "golang",
		SearchType: model.SearchHybrid,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, model.MatchKeyword, resp.Results[0].MatchType)
}

func TestSearchHonorsLimit(t *testing.T) {
	fake := storetest.New()
	for i := 0; i < 20; i++ {
		fake.SeedMemory(&model.Memory{
			AssistantID: "a",
			Content:     "terraform module layout",
			Importance:  1 + i%10,
		})
	}

	svc := newTestService(t, fake, nil)
	resp, err := svc.Search(context.Background(), &model.SearchRequest{
		Query:      "terraform",
		SearchType: model.SearchKeyword,
		Limit:      5,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 5)
	for i := 1; i < len(resp.Results); i++ {
		assert.GreaterOrEqual(t, resp.Results[i-1].Score, resp.Results[i].Score)
	}
}

func TestLongQueryIsTruncatedNotRejected(t *testing.T) {
	fake := storetest.New()
	m := fake.SeedMemory(&model.Memory{AssistantID: "a", Content: "long question", Importance: 5})
	fake.SeedEmbedding(m.MemoryID, []float32{1, 0})

	long := make([]byte, 9000)
	for i := range long {
		long[i] = 'q'
	}

	svc := newTestService(t, fake, &stubProvider{vec: []float32{1, 0}})
	resp, err := svc.Search(context.Background(), &model.SearchRequest{
		Query:      string(long),
		SearchType: model.SearchSemantic,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
}

func TestSearchRecordsLog(t *testing.T) {
	fake := storetest.New()
	fake.SeedMemory(&model.Memory{AssistantID: "a", Content: "redis eviction", Importance: 5})

	svc := newTestService(t, fake, nil)
	_, err := svc.Search(context.Background(), &model.SearchRequest{
		Query:       "redis",
		AssistantID: "a",
		SearchType:  model.SearchKeyword,
	})
	require.NoError(t, err)

	// The log write is fire-and-forget; give it a moment.
	require.Eventually(t, func() bool {
		return len(fake.Logs()) == 1
	}, time.Second, 10*time.Millisecond)

	logs := fake.Logs()
	assert.Equal(t, "redis", logs[0].Query)
	assert.Equal(t, model.SearchKeyword, logs[0].SearchType)
	assert.Equal(t, 1, logs[0].ResultCount)
	require.NotNil(t, logs[0].AssistantID)
	assert.Equal(t, "a", *logs[0].AssistantID)
}
