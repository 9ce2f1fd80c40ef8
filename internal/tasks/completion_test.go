package tasks

import (
	"testing"
	"time"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/transit"
)

var now = time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)

func at(offset time.Duration) *time.Time {
	t := now.Add(offset)
	return &t
}

func boardAtT() GameTask {
	return GameTask{
		ID:       "board-0-X-T",
		Type:     TaskBoard,
		StopID:   "T",
		RouteID:  "X",
		GeoFence: &GeoFence{Latitude: 42.3300, Longitude: -71.0800, RadiusMeters: BoardRadiusMeters},
		XPReward: XPBoard,
	}
}

func TestIsCompleteProximityTasks(t *testing.T) {
	fence := &GeoFence{Latitude: 42.3300, Longitude: -71.0800, RadiusMeters: 100}

	tests := []struct {
		name     string
		typ      TaskType
		lat, lng float64
		want     bool
	}{
		{"walk at center", TaskWalkToStop, 42.3300, -71.0800, true},
		{"walk 55 m away", TaskWalkToStop, 42.3305, -71.0800, true},
		{"walk 222 m away", TaskWalkToStop, 42.3320, -71.0800, false},
		{"ride inside", TaskRide, 42.3301, -71.0801, true},
		{"transfer outside", TaskTransfer, 42.3400, -71.0800, false},
		{"invalid rider position", TaskWalkToStop, 95, -71.0800, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			task := GameTask{ID: "x", Type: tc.typ, GeoFence: fence}
			got := IsComplete(task, Snapshot{UserLat: tc.lat, UserLng: tc.lng, Now: now})
			if got != tc.want {
				t.Errorf("IsComplete = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsCompleteBoard(t *testing.T) {
	nearVehicle := transit.Vehicle{ID: "v1", RouteID: "X", Latitude: 42.3301, Longitude: -71.0800}
	farVehicle := transit.Vehicle{ID: "v2", RouteID: "X", Latitude: 42.3400, Longitude: -71.0800}
	otherRoute := transit.Vehicle{ID: "v3", RouteID: "Y", Latitude: 42.3300, Longitude: -71.0800}

	tests := []struct {
		name        string
		vehicles    []transit.Vehicle
		predictions []transit.Prediction
		want        bool
	}{
		{
			name:        "vehicle and imminent departure",
			vehicles:    []transit.Vehicle{nearVehicle},
			predictions: []transit.Prediction{{StopID: "T", RouteID: "X", DepartureTime: at(60 * time.Second)}},
			want:        true,
		},
		{
			name:        "departure exactly now",
			vehicles:    []transit.Vehicle{nearVehicle},
			predictions: []transit.Prediction{{StopID: "T", RouteID: "X", DepartureTime: at(0)}},
			want:        true,
		},
		{
			name:        "departure at window edge",
			vehicles:    []transit.Vehicle{nearVehicle},
			predictions: []transit.Prediction{{StopID: "T", RouteID: "X", DepartureTime: at(120 * time.Second)}},
			want:        true,
		},
		{
			name:        "departure past window",
			vehicles:    []transit.Vehicle{nearVehicle},
			predictions: []transit.Prediction{{StopID: "T", RouteID: "X", DepartureTime: at(121 * time.Second)}},
			want:        false,
		},
		{
			name:        "departure already gone",
			vehicles:    []transit.Vehicle{nearVehicle},
			predictions: []transit.Prediction{{StopID: "T", RouteID: "X", DepartureTime: at(-5 * time.Second)}},
			want:        false,
		},
		{
			name:     "vehicle without prediction",
			vehicles: []transit.Vehicle{nearVehicle},
			want:     false,
		},
		{
			name:        "prediction without departure time",
			vehicles:    []transit.Vehicle{nearVehicle},
			predictions: []transit.Prediction{{StopID: "T", RouteID: "X", ArrivalTime: at(30 * time.Second)}},
			want:        false,
		},
		{
			name:        "prediction without vehicle",
			vehicles:    []transit.Vehicle{farVehicle, otherRoute},
			predictions: []transit.Prediction{{StopID: "T", RouteID: "X", DepartureTime: at(60 * time.Second)}},
			want:        false,
		},
		{
			name:        "prediction for another stop",
			vehicles:    []transit.Vehicle{nearVehicle},
			predictions: []transit.Prediction{{StopID: "C", RouteID: "X", DepartureTime: at(60 * time.Second)}},
			want:        false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			snap := Snapshot{
				UserLat:     42.3300,
				UserLng:     -71.0800,
				Vehicles:    tc.vehicles,
				Predictions: tc.predictions,
				Now:         now,
			}
			if got := IsComplete(boardAtT(), snap); got != tc.want {
				t.Errorf("IsComplete = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCheckAllDoesNotMutateInput(t *testing.T) {
	fence := &GeoFence{Latitude: 42.3300, Longitude: -71.0800, RadiusMeters: 100}
	input := []GameTask{
		{ID: "walk", Type: TaskWalkToStop, GeoFence: fence, XPReward: XPWalkToStop},
		{ID: "ride", Type: TaskRide, GeoFence: &GeoFence{Latitude: 42.40, Longitude: -71.00, RadiusMeters: 100}, XPReward: XPRide},
		{ID: "done", Type: TaskRide, GeoFence: &GeoFence{Latitude: 42.40, Longitude: -71.00, RadiusMeters: 100}, Completed: true, XPReward: XPRide},
	}

	out := CheckAll(input, Snapshot{UserLat: 42.3300, UserLng: -71.0800, Now: now})

	if input[0].Completed {
		t.Error("input slice was mutated")
	}
	if !out[0].Completed {
		t.Error("walk task should be complete")
	}
	if out[1].Completed {
		t.Error("ride task should not be complete")
	}
	if !out[2].Completed {
		t.Error("already completed task must stay completed")
	}
	if got := EarnedXP(out); got != XPWalkToStop+XPRide {
		t.Errorf("EarnedXP = %d, want %d", got, XPWalkToStop+XPRide)
	}
}

func TestMergeCompleted(t *testing.T) {
	previous := []GameTask{
		{ID: "walk-to-stop-0-C", Completed: true},
		{ID: "board-0-X-C", Completed: false},
		{ID: "gone", Completed: true},
	}
	regenerated := []GameTask{
		{ID: "walk-to-stop-0-C"},
		{ID: "board-0-X-C"},
		{ID: "ride-0-T"},
	}

	merged := MergeCompleted(previous, regenerated)

	if !merged[0].Completed || merged[1].Completed || merged[2].Completed {
		t.Errorf("unexpected merge result: %+v", merged)
	}
	if regenerated[0].Completed {
		t.Error("regenerated input was mutated")
	}
}
