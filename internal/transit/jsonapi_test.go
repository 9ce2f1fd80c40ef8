package transit

import (
	"testing"
	"time"
)

func TestDecodeStopsNormalizesRouteMembership(t *testing.T) {
	payload := []byte(`{
		"data": [
			{
				"id": "place-pktrm",
				"type": "stop",
				"attributes": {"name": "Park Street", "latitude": 42.35639, "longitude": -71.0624},
				"relationships": {"route": {"data": {"id": "Red", "type": "route"}}}
			},
			{
				"id": "place-dwnxg",
				"type": "stop",
				"attributes": {"name": "Downtown Crossing", "latitude": 42.355518, "longitude": -71.060225},
				"relationships": {"routes": {"data": [{"id": "Red"}, {"id": "Orange"}]}}
			},
			{
				"id": "place-nolat",
				"type": "stop",
				"attributes": {"name": "No Coordinates", "latitude": null, "longitude": null},
				"relationships": {"route": {"data": null}}
			},
			{
				"id": "",
				"type": "stop",
				"attributes": {"name": "Broken"}
			}
		]
	}`)

	stops, err := DecodeStops(payload)
	if err != nil {
		t.Fatalf("DecodeStops failed: %v", err)
	}
	if len(stops) != 3 {
		t.Fatalf("expected 3 stops, got %d", len(stops))
	}

	tests := []struct {
		id        string
		routes    []string
		hasCoords bool
	}{
		{"place-pktrm", []string{"Red"}, true},
		{"place-dwnxg", []string{"Red", "Orange"}, true},
		{"place-nolat", nil, false},
	}

	for i, tc := range tests {
		t.Run(tc.id, func(t *testing.T) {
			s := stops[i]
			if s.ID != tc.id {
				t.Fatalf("stop %d id = %q, want %q", i, s.ID, tc.id)
			}
			if len(s.RouteIDs) != len(tc.routes) {
				t.Fatalf("RouteIDs = %v, want %v", s.RouteIDs, tc.routes)
			}
			for j := range tc.routes {
				if s.RouteIDs[j] != tc.routes[j] {
					t.Errorf("RouteIDs[%d] = %q, want %q", j, s.RouteIDs[j], tc.routes[j])
				}
			}
			if _, _, ok := s.Position(); ok != tc.hasCoords {
				t.Errorf("Position ok = %v, want %v", ok, tc.hasCoords)
			}
		})
	}
}

func TestDecodeRoutesDisplayName(t *testing.T) {
	payload := []byte(`{"data": [
		{"id": "Red", "attributes": {"long_name": "Red Line", "short_name": ""}},
		{"id": "39", "attributes": {"long_name": "", "short_name": "39"}}
	]}`)

	routes, err := DecodeRoutes(payload)
	if err != nil {
		t.Fatalf("DecodeRoutes failed: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(routes))
	}
	if got := routes[0].DisplayName(); got != "Red Line" {
		t.Errorf("DisplayName() = %q, want %q", got, "Red Line")
	}
	if got := routes[1].DisplayName(); got != "39" {
		t.Errorf("DisplayName() = %q, want %q", got, "39")
	}
}

func TestDecodeVehiclesDropsIncompleteRecords(t *testing.T) {
	payload := []byte(`{"data": [
		{"id": "v1", "attributes": {"latitude": 42.35, "longitude": -71.06}, "relationships": {"route": {"data": {"id": "Red"}}}},
		{"id": "v2", "attributes": {"latitude": null, "longitude": -71.06}, "relationships": {"route": {"data": {"id": "Red"}}}},
		{"id": "v3", "attributes": {"latitude": 42.35, "longitude": -71.06}, "relationships": {}}
	]}`)

	vehicles, err := DecodeVehicles(payload)
	if err != nil {
		t.Fatalf("DecodeVehicles failed: %v", err)
	}
	if len(vehicles) != 1 || vehicles[0].ID != "v1" || vehicles[0].RouteID != "Red" {
		t.Errorf("unexpected vehicles: %+v", vehicles)
	}
}

func TestDecodePredictions(t *testing.T) {
	payload := []byte(`{"data": [
		{
			"id": "p1",
			"attributes": {"arrival_time": "2026-03-01T10:00:00-05:00", "departure_time": "2026-03-01T10:01:00-05:00", "status": null},
			"relationships": {"stop": {"data": {"id": "70075"}}, "route": {"data": {"id": "Red"}}}
		},
		{
			"id": "p2",
			"attributes": {"arrival_time": null, "departure_time": "not-a-time", "status": "Boarding"},
			"relationships": {"stop": {"data": {"id": "70076"}}, "route": {"data": {"id": "Red"}}}
		}
	]}`)

	predictions, err := DecodePredictions(payload)
	if err != nil {
		t.Fatalf("DecodePredictions failed: %v", err)
	}
	if len(predictions) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(predictions))
	}

	first := predictions[0]
	if first.ArrivalTime == nil || first.DepartureTime == nil {
		t.Fatalf("expected both timestamps on first prediction")
	}
	if gap := first.DepartureTime.Sub(*first.ArrivalTime); gap != time.Minute {
		t.Errorf("gap = %v, want 1m", gap)
	}

	second := predictions[1]
	if second.ArrivalTime != nil || second.DepartureTime != nil {
		t.Errorf("expected unparseable timestamps to be nil, got %+v", second)
	}
	if second.Status != "Boarding" {
		t.Errorf("Status = %q, want Boarding", second.Status)
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	stops, err := DecodeStops([]byte(`{"data": []}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stops) != 0 {
		t.Errorf("expected no stops, got %d", len(stops))
	}

	if _, err := DecodeStops([]byte(`{"data": [`)); err == nil {
		t.Error("expected error for truncated payload")
	}
}

func TestValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"place-pktrm", true},
		{"Red", true},
		{"70061", true},
		{"", false},
		{" Red", false},
		{"Red Line", false},
		{"bad\nid", false},
	}
	for _, tc := range tests {
		if got := ValidID(tc.id); got != tc.want {
			t.Errorf("ValidID(%q) = %v, want %v", tc.id, got, tc.want)
		}
	}
}
