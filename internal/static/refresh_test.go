package static

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/db"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/transit"
)

var now = time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

type fakeStore struct {
	last     time.Time
	imported bool
	source   string
	catalog  *db.Catalog
}

func (s *fakeStore) LastImport(context.Context) (time.Time, bool, error) {
	return s.last, s.imported, nil
}

func (s *fakeStore) ReplaceCatalog(_ context.Context, source string, cat db.Catalog) (db.ImportResult, error) {
	s.source = source
	s.catalog = &cat
	return db.ImportResult{Stops: len(cat.Stops), Routes: len(cat.Routes)}, nil
}

type fakeAPI struct {
	routes   []transit.Route
	stops    map[string][]transit.Stop
	failFor  string
	gotTypes string
}

func (a *fakeAPI) GetRoutes(_ context.Context, routeTypes string) ([]transit.Route, error) {
	a.gotTypes = routeTypes
	return a.routes, nil
}

func (a *fakeAPI) GetStopsByRoute(_ context.Context, routeID string) ([]transit.Stop, error) {
	if routeID == a.failFor {
		return nil, errors.New("upstream 500")
	}
	return a.stops[routeID], nil
}

func subwayAPI() *fakeAPI {
	return &fakeAPI{
		routes: []transit.Route{{ID: "Red"}, {ID: "Green-B"}, {ID: "Orange"}},
		stops: map[string][]transit.Stop{
			"Red": {
				transit.NewStop("place-harsq", "Harvard", 42.373362, -71.118956, "Red"),
				transit.NewStop("place-pktrm", "Park Street", 42.35639, -71.0624, "Red"),
			},
			"Green-B": {
				transit.NewStop("place-pktrm", "Park Street", 42.35639, -71.0624, "Green-B"),
				transit.NewStop("place-bucen", "Boston University Central", 42.350082, -71.106865, "Green-B"),
			},
		},
	}
}

func TestFromAPIMergesMembership(t *testing.T) {
	api := subwayAPI()
	cat, err := FromAPI(context.Background(), api, "")
	if err != nil {
		t.Fatalf("FromAPI() error: %v", err)
	}
	if api.gotTypes != DefaultRouteTypes {
		t.Errorf("route types = %q, want %q", api.gotTypes, DefaultRouteTypes)
	}

	var ids []string
	for _, s := range cat.Stops {
		ids = append(ids, s.ID)
	}
	if want := []string{"place-harsq", "place-pktrm", "place-bucen"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("stops = %v, want %v", ids, want)
	}
	if got := cat.Stops[1].RouteIDs; !reflect.DeepEqual(got, []string{"Red", "Green-B"}) {
		t.Errorf("Park Street routes = %v, want [Red Green-B]", got)
	}
	if len(cat.Routes) != 3 {
		t.Errorf("routes = %d, want 3", len(cat.Routes))
	}
}

func TestFromAPISkipsFailingRoute(t *testing.T) {
	api := subwayAPI()
	api.failFor = "Green-B"
	cat, err := FromAPI(context.Background(), api, "1")
	if err != nil {
		t.Fatalf("FromAPI() error: %v", err)
	}
	if len(cat.Stops) != 2 {
		t.Errorf("stops = %d, want 2 from Red only", len(cat.Stops))
	}

	empty := &fakeAPI{routes: []transit.Route{{ID: "Red"}}}
	if _, err := FromAPI(context.Background(), empty, ""); err == nil {
		t.Error("expected error when no stops are returned")
	}
}

func TestRefreshIfStale(t *testing.T) {
	tests := []struct {
		name     string
		store    *fakeStore
		maxAge   time.Duration
		wantDone bool
	}{
		{"empty store", &fakeStore{}, 0, true},
		{"imported, no max age", &fakeStore{imported: true, last: now.Add(-30 * 24 * time.Hour)}, 0, false},
		{"fresh import", &fakeStore{imported: true, last: now.Add(-time.Hour)}, 24 * time.Hour, false},
		{"stale import", &fakeStore{imported: true, last: now.Add(-48 * time.Hour)}, 24 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			done, err := RefreshIfStale(context.Background(), tt.store, Options{
				API:    subwayAPI(),
				MaxAge: tt.maxAge,
				Now:    func() time.Time { return now },
			})
			if err != nil {
				t.Fatalf("RefreshIfStale() error: %v", err)
			}
			if done != tt.wantDone {
				t.Errorf("refreshed = %v, want %v", done, tt.wantDone)
			}
			if done && tt.store.source != "api" {
				t.Errorf("source = %q, want api", tt.store.source)
			}
		})
	}
}

func TestRefreshIfStaleNeedsSource(t *testing.T) {
	if _, err := RefreshIfStale(context.Background(), &fakeStore{}, Options{}); err == nil {
		t.Error("expected error without a catalog source")
	}
}

func TestRefreshPrefersGTFS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gtfs.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	files := map[string]string{
		"routes.txt": "route_id,route_short_name,route_long_name,route_type\nRed,,Red Line,1\n",
		"stops.txt":  "stop_id,stop_name,stop_lat,stop_lon,location_type,parent_station\nplace-pktrm,Park Street,42.35639,-71.0624,1,\n",
	}
	for name, body := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(body))
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	store := &fakeStore{}
	api := subwayAPI()
	if _, err := RefreshIfStale(context.Background(), store, Options{GTFSPath: path, API: api}); err != nil {
		t.Fatalf("RefreshIfStale() error: %v", err)
	}
	if store.source != "gtfs:"+path {
		t.Errorf("source = %q, want gtfs", store.source)
	}
	if api.gotTypes != "" {
		t.Error("API consulted although a GTFS path was given")
	}
	if store.catalog == nil || len(store.catalog.Stops) != 1 {
		t.Errorf("catalog = %+v, want one stop", store.catalog)
	}
}
