package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/esmlabs/extended-memory/internal/api/respond"
	"github.com/esmlabs/extended-memory/internal/services"
)

type assistantHandler struct {
	svc *services.AssistantService
}

type createAssistantRequest struct {
	Name        string  `json:"name"`
	Personality *string `json:"personality,omitempty"`
}

func (h *assistantHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createAssistantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	a, err := h.svc.Create(r.Context(), req.Name, req.Personality)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, a)
}

func (h *assistantHandler) list(w http.ResponseWriter, r *http.Request) {
	as, err := h.svc.List(r.Context())
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, as)
}

func (h *assistantHandler) get(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Get(r.Context(), mux.Vars(r)["assistantId"])
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, a)
}

func (h *assistantHandler) update(w http.ResponseWriter, r *http.Request) {
	var patch services.AssistantPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	a, err := h.svc.Update(r.Context(), mux.Vars(r)["assistantId"], patch)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, a)
}

func (h *assistantHandler) deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Deactivate(r.Context(), mux.Vars(r)["assistantId"]); err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}
