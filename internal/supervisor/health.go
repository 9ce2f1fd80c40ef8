package supervisor

import (
	"fmt"
	"time"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/geo"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/planner"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/tasks"
)

// observation is a copy of the inputs the supervisor judges on each tick
type observation struct {
	gpsActive     bool
	gpsHasFix     bool
	gpsLat        float64
	gpsLng        float64
	gpsUpdatedAt  time.Time
	feedUpdatedAt time.Time
	plan          *planner.TripPlan
	destination   string
	tasks         []tasks.GameTask
}

type issue struct {
	level    Level
	category Category
	message  string
}

// report is the outcome of the four health checks
type report struct {
	gps      GPSHealth
	feed     FeedHealth
	tripPlan TripPlanHealth
	tasks    TasksHealth
	issues   []issue

	restartGPS      bool
	refreshFeed     bool
	regeneratePlan  bool
	regenerateTasks bool
}

type thresholds struct {
	gpsStaleAfter  time.Duration
	feedStaleAfter time.Duration
}

func evaluate(obs observation, now time.Time, th thresholds) report {
	var r report
	r.gps = checkGPS(obs, now, th, &r)
	r.tripPlan = checkTripPlan(obs, &r)
	r.feed = checkFeed(obs, now, th, &r)
	r.tasks = checkTasks(obs, &r)
	return r
}

func (r *report) add(level Level, category Category, format string, args ...any) {
	r.issues = append(r.issues, issue{level: level, category: category, message: fmt.Sprintf(format, args...)})
}

func checkGPS(obs observation, now time.Time, th thresholds, r *report) GPSHealth {
	h := GPSHealth{
		Active:           obs.gpsActive,
		ValidCoordinates: obs.gpsHasFix && geo.IsValidCoordinate(obs.gpsLat, obs.gpsLng),
		AgeMillis:        -1,
	}
	if !obs.gpsUpdatedAt.IsZero() {
		at := obs.gpsUpdatedAt
		h.LastUpdate = &at
		h.AgeMillis = now.Sub(at).Milliseconds()
		h.Stale = now.Sub(at) > th.gpsStaleAfter
	} else {
		h.Stale = true
	}

	switch {
	case !h.Active:
		r.add(LevelError, CategoryGPS, "GPS tracking is not active")
	case h.LastUpdate == nil:
		r.add(LevelWarning, CategoryGPS, "no GPS update received")
	case h.Stale:
		r.add(LevelWarning, CategoryGPS, "GPS data stale: last update %dms ago", h.AgeMillis)
	}
	if h.Active && h.LastUpdate != nil && !h.ValidCoordinates {
		r.add(LevelError, CategoryGPS, "GPS coordinates invalid: %f, %f", obs.gpsLat, obs.gpsLng)
	}

	h.Healthy = h.Active && h.ValidCoordinates && !h.Stale
	r.restartGPS = !h.Healthy
	return h
}

func checkFeed(obs observation, now time.Time, th thresholds, r *report) FeedHealth {
	h := FeedHealth{AgeMillis: -1, Healthy: true}
	if !obs.feedUpdatedAt.IsZero() {
		at := obs.feedUpdatedAt
		h.LastUpdate = &at
		h.AgeMillis = now.Sub(at).Milliseconds()
	}
	if obs.plan == nil || len(obs.plan.Legs) == 0 {
		return h
	}

	h.Checked = true
	switch {
	case h.LastUpdate == nil:
		h.Stale = true
		r.add(LevelWarning, CategoryFeed, "no live transit data received")
	case now.Sub(*h.LastUpdate) > th.feedStaleAfter:
		h.Stale = true
		r.add(LevelWarning, CategoryFeed, "live transit data stale: last update %dms ago", h.AgeMillis)
	}
	h.Healthy = !h.Stale
	r.refreshFeed = h.Stale
	return h
}

func checkTripPlan(obs observation, r *report) TripPlanHealth {
	h := TripPlanHealth{DestinationStopID: obs.destination}
	if obs.plan == nil {
		// Nothing to supervise until a destination is chosen.
		h.Healthy = obs.destination == ""
		if !h.Healthy {
			r.add(LevelError, CategoryTripPlan, "no trip plan for destination %s", obs.destination)
			r.regeneratePlan = true
		}
		return h
	}

	h.Present = true
	h.LegCount = len(obs.plan.Legs)
	h.Valid = validPlan(obs.plan)
	h.Healthy = h.Valid
	if !h.Valid {
		r.add(LevelError, CategoryTripPlan, "trip plan invalid: %d legs", h.LegCount)
		r.regeneratePlan = obs.destination != ""
	}
	return h
}

func checkTasks(obs observation, r *report) TasksHealth {
	h := TasksHealth{Count: len(obs.tasks)}
	for _, t := range obs.tasks {
		if t.Completed {
			h.Completed++
		}
	}
	if obs.plan == nil {
		h.Healthy = obs.destination == ""
		return h
	}

	h.Expected = tasks.ExpectedCount(obs.plan)
	h.Synced = h.Count > 0
	h.Healthy = h.Synced
	if !h.Synced {
		r.add(LevelWarning, CategoryTasks, "tasks out of sync with trip plan")
		r.regenerateTasks = true
		return h
	}
	if h.Count != h.Expected {
		r.add(LevelWarning, CategoryTasks, "task count %d differs from expected %d", h.Count, h.Expected)
	}
	return h
}

// validPlan reports whether the plan has legs and every leg names its route and stops
func validPlan(plan *planner.TripPlan) bool {
	if plan == nil || len(plan.Legs) == 0 {
		return false
	}
	for _, leg := range plan.Legs {
		if leg.RouteID == "" || leg.FromStopID == "" || leg.ToStopID == "" {
			return false
		}
	}
	return true
}
