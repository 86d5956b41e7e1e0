package api

import (
	"net/http"

	"github.com/esmlabs/extended-memory/internal/api/respond"
	"github.com/esmlabs/extended-memory/internal/health"
)

type healthHandler struct {
	checker *health.Checker
}

type healthResponse struct {
	Status       string          `json:"status"`
	Dependencies []health.Status `json:"dependencies,omitempty"`
}

// get reports aggregate health: 200 when every dependency passed its last
// probe, 503 otherwise. With no checker wired it reports bare liveness.
func (h *healthHandler) get(w http.ResponseWriter, _ *http.Request) {
	if h.checker == nil {
		respond.JSON(w, http.StatusOK, healthResponse{Status: "healthy"})
		return
	}
	resp := healthResponse{Status: "healthy", Dependencies: h.checker.Statuses()}
	status := http.StatusOK
	if !h.checker.Healthy() {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	respond.JSON(w, status, resp)
}
