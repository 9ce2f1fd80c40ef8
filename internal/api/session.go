package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/planner"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/session"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/tasks"
)

// PositionRequest is the body of POST /api/session/gps
type PositionRequest struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// DestinationRequest is the body of POST /api/session/destination
type DestinationRequest struct {
	StopID string `json:"stopId"`
}

// DestinationResponse is the JSON response for POST /api/session/destination
type DestinationResponse struct {
	TripPlan *planner.TripPlan `json:"tripPlan"`
	Tasks    []tasks.GameTask  `json:"tasks"`
}

// GetSession handles GET /api/session
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.View(r.Context()))
}

// ReportPosition handles POST /api/session/gps
// Returns the session's tasks after auto-checking them against the fix
func (h *Handler) ReportPosition(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var at time.Time
	if req.Timestamp != nil {
		at = *req.Timestamp
	}
	checked, err := h.session.UpdatePosition(req.Latitude, req.Longitude, at)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid position", err)
		return
	}
	if checked == nil {
		checked = []tasks.GameTask{}
	}
	writeJSON(w, http.StatusOK, CheckTasksResponse{Tasks: checked, EarnedXP: tasks.EarnedXP(checked)})
}

// StopTracking handles DELETE /api/session/gps
func (h *Handler) StopTracking(w http.ResponseWriter, r *http.Request) {
	h.session.StopTracking()
	w.WriteHeader(http.StatusNoContent)
}

// SetDestination handles POST /api/session/destination
func (h *Handler) SetDestination(w http.ResponseWriter, r *http.Request) {
	var req DestinationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	plan, list, err := h.session.SetDestination(r.Context(), req.StopID)
	switch {
	case errors.Is(err, session.ErrDestinationRequired):
		writeError(w, http.StatusBadRequest, "stopId is required", nil)
		return
	case errors.Is(err, session.ErrNoPosition):
		writeError(w, http.StatusConflict, "No GPS position reported yet", nil)
		return
	case errors.Is(err, session.ErrCatalogEmpty):
		writeError(w, http.StatusServiceUnavailable, "Stop catalog not loaded", nil)
		return
	case errors.Is(err, session.ErrUnknownDestination):
		writeError(w, http.StatusNotFound, "Destination stop not found", nil)
		return
	case err != nil && plan == nil:
		writePlanError(w, err)
		return
	case err != nil:
		// Plan stands; the supervisor will retry task generation.
		h.logger.Warn("task generation failed after planning", "destination", req.StopID, "error", err)
	}

	if list == nil {
		list = []tasks.GameTask{}
	}
	writeJSON(w, http.StatusOK, DestinationResponse{TripPlan: plan, Tasks: list})
}

// ClearDestination handles DELETE /api/session/destination
func (h *Handler) ClearDestination(w http.ResponseWriter, r *http.Request) {
	h.session.ClearDestination()
	w.WriteHeader(http.StatusNoContent)
}
