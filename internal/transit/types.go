package transit

import (
	"time"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/geo"
)

// Stop is an immutable snapshot of a stop from the external catalog.
// Coordinates are nil when the upstream record omitted them.
type Stop struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	RouteIDs  []string `json:"routeIds"`
}

// Position returns the stop coordinates and whether they are present and valid
func (s Stop) Position() (lat, lng float64, ok bool) {
	if s.Latitude == nil || s.Longitude == nil {
		return 0, 0, false
	}
	lat, lng = *s.Latitude, *s.Longitude
	if !geo.IsValidCoordinate(lat, lng) {
		return 0, 0, false
	}
	return lat, lng, true
}

// ServesRoute reports whether routeID is in the stop's route membership
func (s Stop) ServesRoute(routeID string) bool {
	for _, id := range s.RouteIDs {
		if id == routeID {
			return true
		}
	}
	return false
}

// Route is an immutable snapshot of a route from the external catalog
type Route struct {
	ID        string `json:"id"`
	LongName  string `json:"longName"`
	ShortName string `json:"shortName"`
}

// DisplayName prefers the long name and falls back to the short name
func (r Route) DisplayName() string {
	if r.LongName != "" {
		return r.LongName
	}
	return r.ShortName
}

// Vehicle is a live vehicle position
type Vehicle struct {
	ID        string  `json:"id"`
	RouteID   string  `json:"routeId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Prediction is a live arrival/departure estimate for a (stop, route) pair
type Prediction struct {
	StopID        string     `json:"stopId"`
	RouteID       string     `json:"routeId"`
	ArrivalTime   *time.Time `json:"arrivalTime"`
	DepartureTime *time.Time `json:"departureTime"`
	Status        string     `json:"status,omitempty"`
}

// NewStop builds a stop with coordinates set
func NewStop(id, name string, lat, lng float64, routeIDs ...string) Stop {
	return Stop{
		ID:        id,
		Name:      name,
		Latitude:  &lat,
		Longitude: &lng,
		RouteIDs:  routeIDs,
	}
}

// FindStop returns the first stop in stops with the given id
func FindStop(stops []Stop, id string) (Stop, bool) {
	for _, s := range stops {
		if s.ID == id {
			return s, true
		}
	}
	return Stop{}, false
}

// FindRoute returns the route with the given id
func FindRoute(routes []Route, id string) (Route, bool) {
	for _, r := range routes {
		if r.ID == id {
			return r, true
		}
	}
	return Route{}, false
}
