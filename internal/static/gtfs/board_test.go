package gtfs

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	rt "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/db"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/planner"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/realtime"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/tasks"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/transit"
)

// Rider standing on the Red platform at Park Street
const platformLat, platformLng = 42.356395, -71.062424

func liveFeedServer(t *testing.T, departure time.Time) *httptest.Server {
	t.Helper()
	header := &rt.FeedHeader{GtfsRealtimeVersion: proto.String("2.0")}
	vehicles := &rt.FeedMessage{
		Header: header,
		Entity: []*rt.FeedEntity{{
			Id: proto.String("v1"),
			Vehicle: &rt.VehiclePosition{
				Trip:     &rt.TripDescriptor{TripId: proto.String("red-1"), RouteId: proto.String("Red")},
				Vehicle:  &rt.VehicleDescriptor{Id: proto.String("R-1")},
				Position: &rt.Position{Latitude: proto.Float32(platformLat), Longitude: proto.Float32(platformLng)},
			},
		}},
	}
	updates := &rt.FeedMessage{
		Header: header,
		Entity: []*rt.FeedEntity{{
			Id: proto.String("tu1"),
			TripUpdate: &rt.TripUpdate{
				Trip: &rt.TripDescriptor{TripId: proto.String("red-1"), RouteId: proto.String("Red")},
				StopTimeUpdate: []*rt.TripUpdate_StopTimeUpdate{{
					StopId:    proto.String("70075"),
					Departure: &rt.TripUpdate_StopTimeEvent{Time: proto.Int64(departure.Unix())},
				}},
			},
		}},
	}

	serve := func(msg *rt.FeedMessage) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			body, err := proto.Marshal(msg)
			if err != nil {
				t.Errorf("marshal: %v", err)
				return
			}
			w.Write(body)
		}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/VehiclePositions.pb", serve(vehicles))
	mux.HandleFunc("/TripUpdates.pb", serve(updates))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestImportedCatalogLetsRiderBoardFromPlatform(t *testing.T) {
	raw := buildZip(t, sampleFeed())
	data, err := ParseReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatal(err)
	}

	store, err := db.Connect(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := store.ReplaceCatalog(ctx, "sample", BuildCatalog(data)); err != nil {
		t.Fatal(err)
	}

	stops, err := store.GetAllStops(ctx)
	if err != nil {
		t.Fatal(err)
	}
	routes, err := store.GetAllRoutes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	aliases, err := store.StopAliases(ctx)
	if err != nil {
		t.Fatal(err)
	}

	plan, err := planner.Plan(platformLat, platformLng, transit.Stop{ID: "place-harsq"}, stops, routes)
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if got := plan.Legs[0].FromStopID; got != "place-pktrm" {
		t.Fatalf("start stop = %s, want station place-pktrm", got)
	}

	list, err := tasks.NewGenerator(nil, nil).Generate(ctx, plan, stops)
	if err != nil {
		t.Fatal(err)
	}
	var board *tasks.GameTask
	for i := range list {
		if list[i].Type == tasks.TaskBoard {
			board = &list[i]
		}
	}
	if board == nil {
		t.Fatal("no board task generated")
	}

	now := time.Now().UTC().Truncate(time.Second)
	srv := liveFeedServer(t, now.Add(60*time.Second))
	feed := realtime.NewFeedClient(srv.URL+"/VehiclePositions.pb", srv.URL+"/TripUpdates.pb", aliases, nil)
	snap, err := feed.Fetch(ctx, []string{"Red"})
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}

	if !tasks.IsComplete(*board, tasks.Snapshot{
		UserLat:     platformLat,
		UserLng:     platformLng,
		Vehicles:    snap.Vehicles,
		Predictions: snap.Predictions,
		Now:         now,
	}) {
		t.Errorf("board task at %s not completed with predictions %+v", board.StopID, snap.Predictions)
	}
}
