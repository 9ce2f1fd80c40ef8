package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/planner"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the JSON error response structure
type ErrorResponse struct {
	Error       string         `json:"error"`
	Recoverable *bool          `json:"recoverable,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = map[string]any{"internal": err.Error()}
	}
	writeJSON(w, status, resp)
}

// writePlanError maps planning failures: recoverable ones are worth retrying
// (503), the rest need a different request (422).
func writePlanError(w http.ResponseWriter, err error) {
	var pe *planner.PlanError
	if !errors.As(err, &pe) {
		writeError(w, http.StatusInternalServerError, "Failed to plan trip", err)
		return
	}
	status := http.StatusUnprocessableEntity
	if pe.Recoverable {
		status = http.StatusServiceUnavailable
	}
	recoverable := pe.Recoverable
	writeJSON(w, status, ErrorResponse{Error: pe.Message, Recoverable: &recoverable})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("empty request body")
		}
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}
