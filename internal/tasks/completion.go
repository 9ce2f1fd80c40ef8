package tasks

import (
	"time"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/geo"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/transit"
)

// Snapshot is the live state completion is judged against
type Snapshot struct {
	UserLat     float64
	UserLng     float64
	Vehicles    []transit.Vehicle
	Predictions []transit.Prediction
	Now         time.Time // zero means time.Now()
}

// IsComplete applies the completion predicate for the task's type
func IsComplete(task GameTask, snap Snapshot) bool {
	if task.GeoFence == nil || !geo.IsValidCoordinate(snap.UserLat, snap.UserLng) {
		return false
	}

	switch task.Type {
	case TaskWalkToStop, TaskRide, TaskTransfer:
		return insideFence(*task.GeoFence, snap.UserLat, snap.UserLng)
	case TaskBoard:
		return vehicleNearby(task.RouteID, snap) && departingSoon(task.StopID, task.RouteID, snap)
	}
	return false
}

// CheckAll returns a copy of tasks with Completed updated. Completed tasks
// are never re-evaluated and the input slice is left untouched.
func CheckAll(tasks []GameTask, snap Snapshot) []GameTask {
	if snap.Now.IsZero() {
		snap.Now = time.Now()
	}

	out := make([]GameTask, len(tasks))
	for i, task := range tasks {
		out[i] = task
		if task.Completed {
			continue
		}
		if IsComplete(task, snap) {
			out[i].Completed = true
		}
	}
	return out
}

// MergeCompleted carries completion over from previous into regenerated by task id
func MergeCompleted(previous, regenerated []GameTask) []GameTask {
	done := make(map[string]bool, len(previous))
	for _, t := range previous {
		if t.Completed {
			done[t.ID] = true
		}
	}

	out := make([]GameTask, len(regenerated))
	for i, t := range regenerated {
		out[i] = t
		if done[t.ID] {
			out[i].Completed = true
		}
	}
	return out
}

// EarnedXP sums the XP of completed tasks
func EarnedXP(tasks []GameTask) int {
	total := 0
	for _, t := range tasks {
		if t.Completed {
			total += t.XPReward
		}
	}
	return total
}

func insideFence(fence GeoFence, lat, lng float64) bool {
	return geo.Haversine(lat, lng, fence.Latitude, fence.Longitude) <= fence.RadiusMeters
}

func vehicleNearby(routeID string, snap Snapshot) bool {
	for _, v := range snap.Vehicles {
		if v.RouteID != routeID {
			continue
		}
		if geo.Haversine(snap.UserLat, snap.UserLng, v.Latitude, v.Longitude) <= BoardVehicleRadiusMeters {
			return true
		}
	}
	return false
}

// departingSoon requires a prediction for (stop, route) leaving within the window
func departingSoon(stopID, routeID string, snap Snapshot) bool {
	now := snap.Now
	if now.IsZero() {
		now = time.Now()
	}
	for _, p := range snap.Predictions {
		if p.StopID != stopID || p.RouteID != routeID || p.DepartureTime == nil {
			continue
		}
		countdown := p.DepartureTime.Sub(now).Seconds()
		if countdown >= 0 && countdown <= BoardDepartureWindowSecs {
			return true
		}
	}
	return false
}
