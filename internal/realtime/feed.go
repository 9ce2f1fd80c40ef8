package realtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/transit"
)

// Snapshot is one refresh of live transit data
type Snapshot struct {
	Vehicles    []transit.Vehicle
	Predictions []transit.Prediction
	FetchedAt   time.Time
}

// Source supplies live data, optionally narrowed to the given routes
type Source interface {
	Fetch(ctx context.Context, routeIDs []string) (Snapshot, error)
}

// FeedClient reads GTFS-RT VehiclePositions and TripUpdates feeds
type FeedClient struct {
	vehiclesURL    string
	tripUpdatesURL string
	client         *http.Client
	aliases        aliasTable
	logger         *slog.Logger
}

// NewFeedClient creates a client for the two protobuf feeds. aliases maps
// platform stop ids to the station ids used in trip plans; it may be nil.
func NewFeedClient(vehiclesURL, tripUpdatesURL string, aliases map[string]string, logger *slog.Logger) *FeedClient {
	if logger == nil {
		logger = slog.Default()
	}
	c := &FeedClient{
		vehiclesURL:    vehiclesURL,
		tripUpdatesURL: tripUpdatesURL,
		client:         &http.Client{Timeout: 15 * time.Second},
		logger:         logger,
	}
	c.aliases.set(aliases)
	return c
}

// SetAliases replaces the platform to station map after a catalog reload
func (c *FeedClient) SetAliases(aliases map[string]string) {
	c.aliases.set(aliases)
}

// Fetch downloads both feeds. Vehicle positions are required; a failed
// trip updates fetch yields a snapshot without predictions.
func (c *FeedClient) Fetch(ctx context.Context, routeIDs []string) (Snapshot, error) {
	keep := routeFilter(routeIDs)

	vehicleFeed, err := c.fetchFeed(ctx, c.vehiclesURL)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to fetch vehicle positions: %w", err)
	}
	snap := Snapshot{
		Vehicles:  vehiclesFromFeed(vehicleFeed, keep),
		FetchedAt: time.Now().UTC(),
	}

	tripFeed, err := c.fetchFeed(ctx, c.tripUpdatesURL)
	if err != nil {
		c.logger.Warn("failed to fetch trip updates, continuing without predictions", "error", err)
		return snap, nil
	}
	snap.Predictions = predictionsFromFeed(tripFeed, keep, c.aliases.snapshot())

	c.logger.Debug("feed refreshed", "vehicles", len(snap.Vehicles), "predictions", len(snap.Predictions))
	return snap, nil
}

func vehiclesFromFeed(feed *gtfs.FeedMessage, keep func(string) bool) []transit.Vehicle {
	var vehicles []transit.Vehicle
	for _, entity := range feed.Entity {
		vp := entity.GetVehicle()
		if vp == nil || vp.Position == nil {
			continue
		}
		routeID := vp.GetTrip().GetRouteId()
		if routeID == "" || !keep(routeID) {
			continue
		}

		id := vp.GetVehicle().GetId()
		if id == "" {
			id = "entity:" + entity.GetId()
		}
		vehicles = append(vehicles, transit.Vehicle{
			ID:        id,
			RouteID:   routeID,
			Latitude:  float64(vp.Position.GetLatitude()),
			Longitude: float64(vp.Position.GetLongitude()),
		})
	}
	return vehicles
}

func predictionsFromFeed(feed *gtfs.FeedMessage, keep func(string) bool, aliases map[string]string) []transit.Prediction {
	var predictions []transit.Prediction
	for _, entity := range feed.Entity {
		tu := entity.GetTripUpdate()
		if tu == nil {
			continue
		}
		routeID := tu.GetTrip().GetRouteId()
		if routeID == "" || !keep(routeID) {
			continue
		}

		for _, stu := range tu.StopTimeUpdate {
			if stu.StopId == nil {
				continue
			}
			stopID := *stu.StopId
			if station, ok := aliases[stopID]; ok {
				stopID = station
			}

			p := transit.Prediction{
				StopID:  stopID,
				RouteID: routeID,
				Status:  stu.GetScheduleRelationship().String(),
			}
			if stu.Arrival != nil && stu.Arrival.Time != nil {
				t := time.Unix(*stu.Arrival.Time, 0).UTC()
				p.ArrivalTime = &t
			}
			if stu.Departure != nil && stu.Departure.Time != nil {
				t := time.Unix(*stu.Departure.Time, 0).UTC()
				p.DepartureTime = &t
			}
			predictions = append(predictions, p)
		}
	}
	return predictions
}

// fetchFeed fetches a GTFS-RT feed from the given URL
func (c *FeedClient) fetchFeed(ctx context.Context, url string) (*gtfs.FeedMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, feed); err != nil {
		return nil, fmt.Errorf("failed to parse protobuf: %w", err)
	}

	return feed, nil
}

func routeFilter(routeIDs []string) func(string) bool {
	if len(routeIDs) == 0 {
		return func(string) bool { return true }
	}
	set := make(map[string]bool, len(routeIDs))
	for _, id := range routeIDs {
		set[id] = true
	}
	return func(id string) bool { return set[id] }
}
