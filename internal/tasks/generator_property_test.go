package tasks

import (
	"context"
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/geo"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/planner"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/transit"
)

// Every generated task has a positive radius and a valid center, and each
// leg yields three tasks plus one for a non-final transfer leg.
func TestPropertyGeneratedTasksAreWellFormed(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		numLegs := rapid.IntRange(1, 2).Draw(rt, "numLegs")

		var stops []transit.Stop
		for i := 0; i <= numLegs; i++ {
			lat := rapid.Float64Range(-89, 89).Draw(rt, fmt.Sprintf("lat_%d", i))
			lng := rapid.Float64Range(-179, 179).Draw(rt, fmt.Sprintf("lng_%d", i))
			stops = append(stops, transit.NewStop(fmt.Sprintf("S%d", i), fmt.Sprintf("Stop %d", i), lat, lng, "R"))
		}

		plan := &planner.TripPlan{HasTransfer: numLegs == 2}
		for i := 0; i < numLegs; i++ {
			plan.Legs = append(plan.Legs, planner.TripLeg{
				RouteID:      fmt.Sprintf("R%d", i),
				RouteName:    fmt.Sprintf("Route %d", i),
				FromStopID:   stops[i].ID,
				FromStopName: stops[i].Name,
				ToStopID:     stops[i+1].ID,
				ToStopName:   stops[i+1].Name,
				IsTransfer:   numLegs == 2 && i == 0,
			})
		}

		tasks, err := NewGenerator(nil, nil).Generate(context.Background(), plan, stops)
		if err != nil {
			rt.Fatalf("Generate failed: %v", err)
		}

		perLeg := make(map[int]int)
		for _, task := range tasks {
			if task.GeoFence == nil || task.GeoFence.RadiusMeters <= 0 {
				rt.Fatalf("task %s has bad geofence %+v", task.ID, task.GeoFence)
			}
			if !geo.IsValidCoordinate(task.GeoFence.Latitude, task.GeoFence.Longitude) {
				rt.Fatalf("task %s has invalid center", task.ID)
			}
			perLeg[task.LegIndex]++
		}

		for i, leg := range plan.Legs {
			want := 3
			if leg.IsTransfer && i < len(plan.Legs)-1 {
				want = 4
			}
			if perLeg[i] != want {
				rt.Fatalf("leg %d has %d tasks, want %d", i, perLeg[i], want)
			}
		}
		if len(tasks) != ExpectedCount(plan) {
			rt.Fatalf("len(tasks) = %d, ExpectedCount = %d", len(tasks), ExpectedCount(plan))
		}
	})
}
