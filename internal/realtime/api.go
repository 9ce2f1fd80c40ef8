package realtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/transit"
)

// APIClient reads stops, routes, vehicles and predictions from a JSON:API
// transit service
type APIClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	aliases aliasTable
	logger  *slog.Logger
}

// NewAPIClient creates a client for baseURL. apiKey and aliases may be empty.
func NewAPIClient(baseURL, apiKey string, aliases map[string]string, logger *slog.Logger) *APIClient {
	if logger == nil {
		logger = slog.Default()
	}
	c := &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
	c.aliases.set(aliases)
	return c
}

// SetAliases replaces the platform to station map after a catalog reload
func (c *APIClient) SetAliases(aliases map[string]string) {
	c.aliases.set(aliases)
}

// GetStopsByRoute returns the stops served by routeID. Stops whose payload
// carries no route relationship are attributed to routeID.
func (c *APIClient) GetStopsByRoute(ctx context.Context, routeID string) ([]transit.Stop, error) {
	body, err := c.get(ctx, "/stops", url.Values{"filter[route]": {routeID}})
	if err != nil {
		return nil, err
	}
	stops, err := transit.DecodeStops(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode stops for route %s: %w", routeID, err)
	}
	for i := range stops {
		if !stops[i].ServesRoute(routeID) {
			stops[i].RouteIDs = append(stops[i].RouteIDs, routeID)
		}
	}
	return stops, nil
}

// GetRoutes returns routes, optionally filtered by GTFS route type (e.g. "0,1")
func (c *APIClient) GetRoutes(ctx context.Context, routeTypes string) ([]transit.Route, error) {
	params := url.Values{}
	if routeTypes != "" {
		params.Set("filter[type]", routeTypes)
	}
	body, err := c.get(ctx, "/routes", params)
	if err != nil {
		return nil, err
	}
	routes, err := transit.DecodeRoutes(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode routes: %w", err)
	}
	return routes, nil
}

// Fetch implements Source with the vehicles and predictions endpoints.
// An empty routeIDs returns an empty snapshot rather than the whole network.
func (c *APIClient) Fetch(ctx context.Context, routeIDs []string) (Snapshot, error) {
	snap := Snapshot{FetchedAt: time.Now().UTC()}
	if len(routeIDs) == 0 {
		return snap, nil
	}
	filter := url.Values{"filter[route]": {strings.Join(routeIDs, ",")}}

	body, err := c.get(ctx, "/vehicles", filter)
	if err != nil {
		return Snapshot{}, err
	}
	if snap.Vehicles, err = transit.DecodeVehicles(body); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode vehicles: %w", err)
	}

	body, err = c.get(ctx, "/predictions", filter)
	if err != nil {
		c.logger.Warn("failed to fetch predictions, continuing without them", "error", err)
		return snap, nil
	}
	if snap.Predictions, err = transit.DecodePredictions(body); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode predictions: %w", err)
	}
	for i, p := range snap.Predictions {
		snap.Predictions[i].StopID = c.aliases.station(p.StopID)
	}
	return snap, nil
}

func (c *APIClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.api+json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
