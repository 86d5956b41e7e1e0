package api

import (
	"encoding/json"
	"net/http"

	"github.com/esmlabs/extended-memory/internal/api/respond"
	"github.com/esmlabs/extended-memory/internal/api/validate"
	"github.com/esmlabs/extended-memory/internal/model"
)

type searchHandler struct {
	svc Searcher
}

func (h *searchHandler) search(w http.ResponseWriter, r *http.Request) {
	var req model.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	resp, err := h.svc.Search(r.Context(), &req)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, resp)
}

func (h *searchHandler) suggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := validate.QueryInt(q, "limit", 0)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	sugg, err := h.svc.Suggestions(r.Context(), q.Get("q"), q.Get("assistantId"), limit)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"suggestions": sugg})
}

func (h *searchHandler) recent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := validate.QueryInt(q, "limit", 0)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	logs, err := h.svc.Recent(r.Context(), q.Get("assistantId"), limit)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"searches": logs})
}

func (h *searchHandler) popularTags(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := validate.QueryInt(q, "limit", 0)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	tags, err := h.svc.PopularTags(r.Context(), q.Get("assistantId"), limit)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"tags": tags})
}
