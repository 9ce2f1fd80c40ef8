package api

import (
	"net/http"
	"time"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/confidence"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/planner"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/tasks"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/transit"
)

// PlanRequest is the body of POST /api/plan. Stops and routes default to the
// loaded catalog; the destination may be given by id alone.
type PlanRequest struct {
	UserLat           float64         `json:"userLat"`
	UserLng           float64         `json:"userLng"`
	Destination       *transit.Stop   `json:"destination,omitempty"`
	DestinationStopID string          `json:"destinationStopId,omitempty"`
	Stops             []transit.Stop  `json:"stops,omitempty"`
	Routes            []transit.Route `json:"routes,omitempty"`
}

// TasksRequest is the body of POST /api/tasks
type TasksRequest struct {
	TripPlan *planner.TripPlan `json:"tripPlan"`
	Stops    []transit.Stop    `json:"stops,omitempty"`
}

// TasksResponse is the JSON response for POST /api/tasks
type TasksResponse struct {
	Tasks         []tasks.GameTask `json:"tasks"`
	ExpectedCount int              `json:"expectedCount"`
}

// CheckTasksRequest is the body of POST /api/tasks/check
type CheckTasksRequest struct {
	Tasks       []tasks.GameTask     `json:"tasks"`
	UserLat     float64              `json:"userLat"`
	UserLng     float64              `json:"userLng"`
	Vehicles    []transit.Vehicle    `json:"vehicles"`
	Predictions []transit.Prediction `json:"predictions"`
	Now         *time.Time           `json:"now,omitempty"`
}

// CheckTasksResponse is the JSON response for POST /api/tasks/check
type CheckTasksResponse struct {
	Tasks    []tasks.GameTask `json:"tasks"`
	EarnedXP int              `json:"earnedXp"`
}

// ConfidenceRequest is the body of POST /api/confidence
type ConfidenceRequest struct {
	TripPlan     *planner.TripPlan    `json:"tripPlan"`
	Predictions  []transit.Prediction `json:"predictions"`
	WalkSpeedMps float64              `json:"walkSpeedMps,omitempty"`
}

// ConfidenceResponse is the JSON response for POST /api/confidence
type ConfidenceResponse struct {
	Transfers []confidence.TransferConfidence `json:"transfers"`
}

// PlanTrip handles POST /api/plan
func (h *Handler) PlanTrip(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	stops, routes := req.Stops, req.Routes
	if len(stops) == 0 || len(routes) == 0 {
		catalogStops, catalogRoutes := h.session.Catalog()
		if len(stops) == 0 {
			stops = catalogStops
		}
		if len(routes) == 0 {
			routes = catalogRoutes
		}
	}

	dest := transit.Stop{ID: req.DestinationStopID}
	if req.Destination != nil {
		dest = *req.Destination
	}

	plan, err := h.planner.Plan(req.UserLat, req.UserLng, dest, stops, routes)
	if err != nil {
		h.logger.Info("plan request failed", "destination", dest.ID, "error", err)
		writePlanError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// GenerateTasks handles POST /api/tasks
func (h *Handler) GenerateTasks(w http.ResponseWriter, r *http.Request) {
	var req TasksRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TripPlan == nil {
		writeError(w, http.StatusBadRequest, "tripPlan is required", nil)
		return
	}

	stops := req.Stops
	if len(stops) == 0 {
		stops, _ = h.session.Catalog()
	}

	list, err := h.generator.Generate(r.Context(), req.TripPlan, stops)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, TasksResponse{Tasks: list, ExpectedCount: tasks.ExpectedCount(req.TripPlan)})
}

// CheckTasks handles POST /api/tasks/check
func (h *Handler) CheckTasks(w http.ResponseWriter, r *http.Request) {
	var req CheckTasksRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	snap := tasks.Snapshot{
		UserLat:     req.UserLat,
		UserLng:     req.UserLng,
		Vehicles:    req.Vehicles,
		Predictions: req.Predictions,
		Now:         h.now(),
	}
	if req.Now != nil {
		snap.Now = *req.Now
	}

	checked := tasks.CheckAll(req.Tasks, snap)
	writeJSON(w, http.StatusOK, CheckTasksResponse{Tasks: checked, EarnedXP: tasks.EarnedXP(checked)})
}

// TransferConfidence handles POST /api/confidence
func (h *Handler) TransferConfidence(w http.ResponseWriter, r *http.Request) {
	var req ConfidenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TripPlan == nil {
		writeError(w, http.StatusBadRequest, "tripPlan is required", nil)
		return
	}

	opts := h.confidence
	if req.WalkSpeedMps > 0 {
		opts.WalkSpeedMps = req.WalkSpeedMps
	}
	results := confidence.EvaluateWithSchedule(r.Context(), req.TripPlan, req.Predictions, h.schedule, h.now(), opts)
	writeJSON(w, http.StatusOK, ConfidenceResponse{Transfers: results})
}
