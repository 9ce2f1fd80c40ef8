package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

const stopsPayload = `{"data": [
	{"id": "place-pktrm", "type": "stop",
	 "attributes": {"name": "Park Street", "latitude": 42.35639, "longitude": -71.0624},
	 "relationships": {"route": {"data": {"id": "Green-B", "type": "route"}}}},
	{"id": "place-bucen", "type": "stop",
	 "attributes": {"name": "Boston University Central", "latitude": 42.350082, "longitude": -71.106865}}
]}`

const routesPayload = `{"data": [
	{"id": "Red", "type": "route", "attributes": {"long_name": "Red Line", "short_name": ""}},
	{"id": "Green-B", "type": "route", "attributes": {"long_name": "Green Line B", "short_name": "B"}}
]}`

const vehiclesPayload = `{"data": [
	{"id": "G-10071", "type": "vehicle", "attributes": {"latitude": 42.3501, "longitude": -71.1066},
	 "relationships": {"route": {"data": {"id": "Green-B", "type": "route"}}}}
]}`

const predictionsPayload = `{"data": [
	{"id": "prediction-1", "type": "prediction",
	 "attributes": {"arrival_time": "2026-03-14T08:01:30-04:00", "departure_time": "2026-03-14T08:02:00-04:00", "status": null},
	 "relationships": {"stop": {"data": {"id": "70200", "type": "stop"}}, "route": {"data": {"id": "Green-B", "type": "route"}}}}
]}`

type recordedRequest struct {
	path, query, apiKey, accept string
}

func apiServer(t *testing.T, predictionsStatus int) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var seen []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, recordedRequest{r.URL.Path, r.URL.RawQuery, r.Header.Get("x-api-key"), r.Header.Get("Accept")})
		w.Header().Set("Content-Type", "application/vnd.api+json")
		switch r.URL.Path {
		case "/stops":
			w.Write([]byte(stopsPayload))
		case "/routes":
			w.Write([]byte(routesPayload))
		case "/vehicles":
			w.Write([]byte(vehiclesPayload))
		case "/predictions":
			if predictionsStatus != http.StatusOK {
				w.WriteHeader(predictionsStatus)
				return
			}
			w.Write([]byte(predictionsPayload))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestAPIClientGetStopsByRoute(t *testing.T) {
	srv, seen := apiServer(t, http.StatusOK)
	client := NewAPIClient(srv.URL+"/", "secret", nil, nil)

	stops, err := client.GetStopsByRoute(context.Background(), "Green-B")
	if err != nil {
		t.Fatalf("GetStopsByRoute() error: %v", err)
	}
	if len(stops) != 2 {
		t.Fatalf("stops = %+v", stops)
	}
	for _, s := range stops {
		if !reflect.DeepEqual(s.RouteIDs, []string{"Green-B"}) {
			t.Errorf("%s routes = %v", s.ID, s.RouteIDs)
		}
	}
	if _, _, ok := stops[1].Position(); !ok {
		t.Error("expected coordinates")
	}

	req := (*seen)[0]
	if req.path != "/stops" || req.query != "filter%5Broute%5D=Green-B" {
		t.Errorf("request = %+v", req)
	}
	if req.apiKey != "secret" || req.accept != "application/vnd.api+json" {
		t.Errorf("headers = %+v", req)
	}
}

func TestAPIClientGetRoutes(t *testing.T) {
	srv, seen := apiServer(t, http.StatusOK)
	client := NewAPIClient(srv.URL, "", nil, nil)

	routes, err := client.GetRoutes(context.Background(), "0,1")
	if err != nil {
		t.Fatalf("GetRoutes() error: %v", err)
	}
	if len(routes) != 2 || routes[1].ShortName != "B" {
		t.Errorf("routes = %+v", routes)
	}
	if req := (*seen)[0]; req.query != "filter%5Btype%5D=0%2C1" || req.apiKey != "" {
		t.Errorf("request = %+v", req)
	}
}

func TestAPIClientFetch(t *testing.T) {
	srv, _ := apiServer(t, http.StatusOK)
	client := NewAPIClient(srv.URL, "", map[string]string{"70200": "place-pktrm"}, nil)

	snap, err := client.Fetch(context.Background(), []string{"Green-B"})
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(snap.Vehicles) != 1 || snap.Vehicles[0].ID != "G-10071" {
		t.Errorf("vehicles = %+v", snap.Vehicles)
	}
	if len(snap.Predictions) != 1 {
		t.Fatalf("predictions = %+v", snap.Predictions)
	}
	p := snap.Predictions[0]
	if p.StopID != "place-pktrm" || p.ArrivalTime == nil || p.ArrivalTime.UTC().Hour() != 12 {
		t.Errorf("prediction = %+v", p)
	}
}

func TestAPIClientFetchWithoutRoutes(t *testing.T) {
	srv, seen := apiServer(t, http.StatusOK)
	client := NewAPIClient(srv.URL, "", nil, nil)

	snap, err := client.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(snap.Vehicles) != 0 || len(*seen) != 0 {
		t.Errorf("expected no requests, got %v", *seen)
	}
}

func TestAPIClientPredictionsFailureIsNotFatal(t *testing.T) {
	srv, _ := apiServer(t, http.StatusTooManyRequests)
	client := NewAPIClient(srv.URL, "", nil, nil)

	snap, err := client.Fetch(context.Background(), []string{"Green-B"})
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(snap.Vehicles) != 1 || len(snap.Predictions) != 0 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestAPIClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewAPIClient(srv.URL, "", nil, nil)
	if _, err := client.GetStopsByRoute(context.Background(), "Red"); err == nil {
		t.Fatal("expected error for 403")
	}
}
