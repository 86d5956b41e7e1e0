package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esmlabs/extended-memory/internal/embeddings"
	"github.com/esmlabs/extended-memory/internal/model"
	"github.com/esmlabs/extended-memory/internal/services"
	"github.com/esmlabs/extended-memory/internal/store/storetest"
)

// mockSearcher lets handler tests script search outcomes.
type mockSearcher struct {
	resp *model.SearchResponse
	err  error
}

func (m *mockSearcher) Search(context.Context, *model.SearchRequest) (*model.SearchResponse, error) {
	return m.resp, m.err
}
func (m *mockSearcher) Suggestions(context.Context, string, string, int) ([]string, error) {
	return []string{"python tips"}, m.err
}
func (m *mockSearcher) Recent(context.Context, string, int) ([]*model.SearchLog, error) {
	return nil, m.err
}
func (m *mockSearcher) PopularTags(context.Context, string, int) ([]model.TagCount, error) {
	return []model.TagCount{{Tag: "go", Count: 2}}, m.err
}

func newTestRouter(t *testing.T, searcher Searcher) (*httptest.Server, *storetest.Fake) {
	t.Helper()
	fake := storetest.New()
	gw := embeddings.NewGateway(nil, "", zerolog.Nop())
	srv := httptest.NewServer(NewRouter(Deps{
		Assistants: services.NewAssistantService(fake, zerolog.Nop()),
		Memories:   services.NewMemoryService(fake, gw, zerolog.Nop()),
		Search:     searcher,
		Log:        zerolog.Nop(),
	}))
	t.Cleanup(srv.Close)
	return srv, fake
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestAssistantLifecycle(t *testing.T) {
	srv, _ := newTestRouter(t, &mockSearcher{})

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/assistants", map[string]any{"name": "helper"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[model.Assistant](t, resp)
	assert.Equal(t, "helper", created.Name)

	// Duplicate name conflicts.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/assistants", map[string]any{"name": "helper"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/assistants/"+created.AssistantID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, http.MethodPatch, srv.URL+"/api/assistants/"+created.AssistantID,
		map[string]any{"personality": "brisk"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	patched := decode[model.Assistant](t, resp)
	require.NotNil(t, patched.Personality)
	assert.Equal(t, "brisk", *patched.Personality)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/assistants/"+created.AssistantID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/assistants/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestMemoryEndpoints(t *testing.T) {
	srv, fake := newTestRouter(t, &mockSearcher{})

	a, err := fake.Assistants().Create(context.Background(), &model.Assistant{Name: "helper"})
	require.NoError(t, err)
	base := srv.URL + "/api/assistants/" + a.AssistantID + "/memories"

	resp := doJSON(t, http.MethodPost, base, map[string]any{
		"content": "gophers burrow", "importance": 7, "tags": []string{"animals"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[model.Memory](t, resp)
	assert.Equal(t, a.AssistantID, created.AssistantID)
	assert.Equal(t, 7, created.Importance)

	resp = doJSON(t, http.MethodPost, base, map[string]any{"content": "x", "importance": 42})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, http.MethodGet, base+"?tags=animals&minImportance=5", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed := decode[[]model.Memory](t, resp)
	require.Len(t, listed, 1)

	resp = doJSON(t, http.MethodGet, base+"?minImportance=abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/memories/"+created.MemoryID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, http.MethodPatch, srv.URL+"/api/memories/"+created.MemoryID,
		map[string]any{"summary": "burrowing rodents"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	patched := decode[model.Memory](t, resp)
	require.NotNil(t, patched.Summary)
	assert.Equal(t, "burrowing rodents", *patched.Summary)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/memories/"+created.MemoryID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestSearchEndpointStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		mock   *mockSearcher
		status int
	}{
		{"ok", &mockSearcher{resp: &model.SearchResponse{Query: "go", SearchType: model.SearchHybrid}}, http.StatusOK},
		{"validation", &mockSearcher{err: fmt.Errorf("query must not be empty: %w", model.ErrValidation)}, http.StatusBadRequest},
		{"total failure", &mockSearcher{err: fmt.Errorf("hybrid search failed: %w", model.ErrUnavailable)}, http.StatusBadGateway},
		{"internal", &mockSearcher{err: fmt.Errorf("boom")}, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newTestRouter(t, tc.mock)
			resp := doJSON(t, http.MethodPost, srv.URL+"/api/search", model.SearchRequest{Query: "go"})
			assert.Equal(t, tc.status, resp.StatusCode)
			_ = resp.Body.Close()
		})
	}
}

func TestAnalyticsEndpoints(t *testing.T) {
	srv, _ := newTestRouter(t, &mockSearcher{})

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/search/suggestions?q=py", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sugg := decode[map[string][]string](t, resp)
	assert.Equal(t, []string{"python tips"}, sugg["suggestions"])

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/search/recent", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/search/tags/popular", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tags := decode[map[string][]model.TagCount](t, resp)
	assert.Equal(t, []model.TagCount{{Tag: "go", Count: 2}}, tags["tags"])
}

func TestHealthEndpointWithoutChecker(t *testing.T) {
	srv, _ := newTestRouter(t, &mockSearcher{})
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "healthy", body["status"])
}
