package api

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"royaltyengine/service"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

// writeError maps service errors onto HTTP statuses. Unrecognized errors are
// logged and surface as an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	var inputErr *service.InputError
	if errors.As(err, &inputErr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: inputErr.Error(), Field: inputErr.Field})
		return
	}

	var stateErr *service.StateError
	if errors.As(err, &stateErr) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: stateErr.Error()})
		return
	}

	var conflictErr *service.ConflictError
	if errors.As(err, &conflictErr) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: conflictErr.Error()})
		return
	}

	var calcErr *service.CalculationError
	if errors.As(err, &calcErr) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: calcErr.Error()})
		return
	}

	if errors.Is(err, service.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}

	log.WithError(err).Error("Unhandled error in HTTP handler")
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}
