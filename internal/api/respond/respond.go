// Package respond centralizes JSON response shaping and error mapping for
// the HTTP handlers.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/esmlabs/extended-memory/internal/model"
)

type errorBody struct {
	Error string `json:"error"`
}

// JSON writes v with the given status. Encoding failures are logged; headers
// are already gone by then.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// Error writes a JSON error body with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorBody{Error: msg})
}

// FromError maps domain errors onto HTTP statuses: validation 400, not found
// 404, conflict 409, unavailable 502, anything else 500.
func FromError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrConflict):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrUnavailable):
		Error(w, http.StatusBadGateway, err.Error())
	default:
		log.Error().Err(err).Msg("internal error")
		Error(w, http.StatusInternalServerError, "internal server error")
	}
}
