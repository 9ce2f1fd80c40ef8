package confidence

import (
	"context"
	"math"
	"time"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/planner"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/transit"
)

// Badge is the categorical likelihood of making a connection
type Badge string

const (
	BadgeLikely   Badge = "Likely"
	BadgeRisky    Badge = "Risky"
	BadgeUnlikely Badge = "Unlikely"
	BadgeUnknown  Badge = "Unknown"
)

const (
	DefaultWalkSpeedMps       = 1.4
	DefaultWalkDistanceMeters = 50.0
	SafetyBufferSeconds       = 120
	LikelyMarginSeconds       = 240
	RiskyMarginSeconds        = 60
)

// TransferConfidence scores one transfer point of a plan
type TransferConfidence struct {
	LegIndex           int        `json:"legIndex"` // index of the arriving leg
	StopID             string     `json:"stopId"`
	FromRouteID        string     `json:"fromRouteId"`
	ToRouteID          string     `json:"toRouteId"`
	Badge              Badge      `json:"badge"`
	MarginSeconds      *int       `json:"marginSeconds"`
	ArrivalTime        *time.Time `json:"arrivalTime"`
	DepartureTime      *time.Time `json:"departureTime"`
	WalkTimeSeconds    int        `json:"walkTimeSeconds"`
	MissingData        bool       `json:"missingData"`
	UsedScheduledTimes bool       `json:"usedScheduledTimes"`
}

// Options tunes the walk estimate between arriving and departing vehicles
type Options struct {
	WalkSpeedMps       float64
	WalkDistanceMeters float64
}

func (o Options) withDefaults() Options {
	if !(o.WalkSpeedMps > 0) {
		o.WalkSpeedMps = DefaultWalkSpeedMps
	}
	if !(o.WalkDistanceMeters > 0) {
		o.WalkDistanceMeters = DefaultWalkDistanceMeters
	}
	return o
}

// WalkTimeSeconds is the rounded-up walking time for the configured distance
func (o Options) WalkTimeSeconds() int {
	o = o.withDefaults()
	return int(math.Ceil(o.WalkDistanceMeters / o.WalkSpeedMps))
}

// Evaluate returns one entry per adjacent leg pair. Missing predictions
// yield BadgeUnknown with MissingData set, never an error.
func Evaluate(plan *planner.TripPlan, predictions []transit.Prediction, opts Options) []TransferConfidence {
	if plan == nil || !plan.HasTransfer || len(plan.Legs) < 2 {
		return []TransferConfidence{}
	}

	opts = opts.withDefaults()
	walk := opts.WalkTimeSeconds()

	results := make([]TransferConfidence, 0, len(plan.Legs)-1)
	for i := 0; i < len(plan.Legs)-1; i++ {
		arriving, departing := plan.Legs[i], plan.Legs[i+1]
		tc := TransferConfidence{
			LegIndex:        i,
			StopID:          arriving.ToStopID,
			FromRouteID:     arriving.RouteID,
			ToRouteID:       departing.RouteID,
			Badge:           BadgeUnknown,
			WalkTimeSeconds: walk,
		}

		arrival := liveArrival(predictions, arriving)
		departure := liveDeparture(predictions, departing, arrival)
		if arrival == nil || departure == nil {
			tc.MissingData = true
			results = append(results, tc)
			continue
		}

		score(&tc, *arrival, *departure)
		results = append(results, tc)
	}
	return results
}

// Score classifies a margin in seconds
func Score(marginSeconds int) Badge {
	switch {
	case marginSeconds >= LikelyMarginSeconds:
		return BadgeLikely
	case marginSeconds >= RiskyMarginSeconds:
		return BadgeRisky
	default:
		return BadgeUnlikely
	}
}

func score(tc *TransferConfidence, arrival, departure time.Time) {
	gap := int(math.Floor(departure.Sub(arrival).Seconds()))
	required := tc.WalkTimeSeconds + SafetyBufferSeconds
	margin := gap - required

	tc.ArrivalTime = &arrival
	tc.DepartureTime = &departure
	tc.MarginSeconds = &margin
	tc.Badge = Score(margin)
	tc.MissingData = false
}

// arrivalTimestamp prefers the arrival time and falls back to departure
func arrivalTimestamp(p transit.Prediction) *time.Time {
	if p.ArrivalTime != nil {
		return p.ArrivalTime
	}
	return p.DepartureTime
}

// ScheduleSource supplies timetable times when live predictions are absent
type ScheduleSource interface {
	// ScheduledArrival is the first scheduled arrival of routeID at stopID after the given time
	ScheduledArrival(ctx context.Context, stopID, routeID string, after time.Time) (*time.Time, error)
	// ScheduledDeparture is the first scheduled departure of routeID from stopID after the given time
	ScheduledDeparture(ctx context.Context, stopID, routeID string, after time.Time) (*time.Time, error)
}

// EvaluateWithSchedule runs Evaluate and fills MissingData entries from the
// schedule, marking them UsedScheduledTimes. Schedule errors leave the entry
// Unknown.
func EvaluateWithSchedule(ctx context.Context, plan *planner.TripPlan, predictions []transit.Prediction, schedule ScheduleSource, now time.Time, opts Options) []TransferConfidence {
	results := Evaluate(plan, predictions, opts)
	if schedule == nil {
		return results
	}

	for i := range results {
		tc := &results[i]
		if !tc.MissingData {
			continue
		}
		arriving, departing := plan.Legs[tc.LegIndex], plan.Legs[tc.LegIndex+1]

		arrival := liveArrival(predictions, arriving)
		if arrival == nil {
			scheduled, err := schedule.ScheduledArrival(ctx, arriving.ToStopID, arriving.RouteID, now)
			if err != nil || scheduled == nil {
				continue
			}
			arrival = scheduled
		}

		departure := liveDeparture(predictions, departing, arrival)
		if departure == nil {
			scheduled, err := schedule.ScheduledDeparture(ctx, departing.FromStopID, departing.RouteID, *arrival)
			if err != nil || scheduled == nil {
				continue
			}
			departure = scheduled
		}

		score(tc, *arrival, *departure)
		tc.UsedScheduledTimes = true
	}
	return results
}

// liveArrival is the soonest predicted arrival of the leg's route at its
// last stop. Predictions without an arrival time count by their departure.
func liveArrival(predictions []transit.Prediction, leg planner.TripLeg) *time.Time {
	var best *time.Time
	for _, p := range predictions {
		if p.StopID != leg.ToStopID || p.RouteID != leg.RouteID {
			continue
		}
		if at := arrivalTimestamp(p); at != nil && (best == nil || at.Before(*best)) {
			best = at
		}
	}
	return best
}

// liveDeparture is the first departure of the leg's route from its first stop
// at or after arrival. When every departure is earlier the latest is used, so
// the transfer scores as missed. A nil arrival picks the earliest departure.
func liveDeparture(predictions []transit.Prediction, leg planner.TripLeg, arrival *time.Time) *time.Time {
	var next, latest *time.Time
	for _, p := range predictions {
		if p.StopID != leg.FromStopID || p.RouteID != leg.RouteID || p.DepartureTime == nil {
			continue
		}
		d := p.DepartureTime
		if latest == nil || d.After(*latest) {
			latest = d
		}
		if arrival != nil && d.Before(*arrival) {
			continue
		}
		if next == nil || d.Before(*next) {
			next = d
		}
	}
	if next != nil {
		return next
	}
	return latest
}
