// Package api exposes the HTTP surface: assistant and memory CRUD, search,
// search analytics, and health.
package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/esmlabs/extended-memory/internal/api/recovery"
	"github.com/esmlabs/extended-memory/internal/health"
	"github.com/esmlabs/extended-memory/internal/model"
	"github.com/esmlabs/extended-memory/internal/services"
)

// Searcher is the slice of the search service the handlers need.
type Searcher interface {
	Search(ctx context.Context, req *model.SearchRequest) (*model.SearchResponse, error)
	Suggestions(ctx context.Context, q, assistantID string, limit int) ([]string, error)
	Recent(ctx context.Context, assistantID string, limit int) ([]*model.SearchLog, error)
	PopularTags(ctx context.Context, assistantID string, limit int) ([]model.TagCount, error)
}

// Deps bundles the services the router serves. Health may be nil; the health
// endpoint then reports plain liveness.
type Deps struct {
	Assistants *services.AssistantService
	Memories   *services.MemoryService
	Search     Searcher
	Health     *health.Checker
	Log        zerolog.Logger
}

// NewRouter builds the service router.
func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()
	r.Use(recovery.Middleware(d.Log))

	ah := &assistantHandler{svc: d.Assistants}
	r.HandleFunc("/api/assistants", ah.create).Methods(http.MethodPost)
	r.HandleFunc("/api/assistants", ah.list).Methods(http.MethodGet)
	r.HandleFunc("/api/assistants/{assistantId}", ah.get).Methods(http.MethodGet)
	r.HandleFunc("/api/assistants/{assistantId}", ah.update).Methods(http.MethodPatch)
	r.HandleFunc("/api/assistants/{assistantId}", ah.deactivate).Methods(http.MethodDelete)

	mh := &memoryHandler{svc: d.Memories}
	r.HandleFunc("/api/assistants/{assistantId}/memories", mh.create).Methods(http.MethodPost)
	r.HandleFunc("/api/assistants/{assistantId}/memories", mh.list).Methods(http.MethodGet)
	r.HandleFunc("/api/memories/{memoryId}", mh.get).Methods(http.MethodGet)
	r.HandleFunc("/api/memories/{memoryId}", mh.update).Methods(http.MethodPatch)
	r.HandleFunc("/api/memories/{memoryId}", mh.delete).Methods(http.MethodDelete)

	sh := &searchHandler{svc: d.Search}
	r.HandleFunc("/api/search", sh.search).Methods(http.MethodPost)
	r.HandleFunc("/api/search/suggestions", sh.suggestions).Methods(http.MethodGet)
	r.HandleFunc("/api/search/recent", sh.recent).Methods(http.MethodGet)
	r.HandleFunc("/api/search/tags/popular", sh.popularTags).Methods(http.MethodGet)

	hh := &healthHandler{checker: d.Health}
	r.HandleFunc("/api/health", hh.get).Methods(http.MethodGet)

	return r
}
