package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/esmlabs/extended-memory/internal/api/respond"
	"github.com/esmlabs/extended-memory/internal/api/validate"
	"github.com/esmlabs/extended-memory/internal/model"
	"github.com/esmlabs/extended-memory/internal/services"
)

type memoryHandler struct {
	svc *services.MemoryService
}

func (h *memoryHandler) create(w http.ResponseWriter, r *http.Request) {
	var mem model.Memory
	if err := json.NewDecoder(r.Body).Decode(&mem); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	mem.AssistantID = mux.Vars(r)["assistantId"]
	created, err := h.svc.Create(r.Context(), &mem)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

func (h *memoryHandler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	mems, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, mems)
}

func (h *memoryHandler) get(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Get(r.Context(), mux.Vars(r)["memoryId"])
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, m)
}

func (h *memoryHandler) update(w http.ResponseWriter, r *http.Request) {
	var patch services.MemoryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	m, err := h.svc.Update(r.Context(), mux.Vars(r)["memoryId"], patch)
	if err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, m)
}

func (h *memoryHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), mux.Vars(r)["memoryId"]); err != nil {
		respond.FromError(w, err)
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}

func listFilter(r *http.Request) (model.MemoryFilter, error) {
	q := r.URL.Query()
	filter := model.MemoryFilter{
		AssistantID: mux.Vars(r)["assistantId"],
		MemoryType:  q.Get("memoryType"),
		Tags:        validate.QueryList(q, "tags"),
	}
	var err error
	if filter.IncludeShared, err = validate.QueryBool(q, "includeShared", false); err != nil {
		return filter, err
	}
	if filter.MinImportance, err = validate.QueryInt(q, "minImportance", 0); err != nil {
		return filter, err
	}
	if filter.Limit, err = validate.QueryInt(q, "limit", 50); err != nil {
		return filter, err
	}
	if filter.DateFrom, err = validate.QueryTime(q, "dateFrom"); err != nil {
		return filter, err
	}
	if filter.DateTo, err = validate.QueryTime(q, "dateTo"); err != nil {
		return filter, err
	}
	return filter, nil
}
