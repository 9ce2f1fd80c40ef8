package planner

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/geo"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/transit"
)

// DefaultTransferRadiusMeters is how far apart two stops may be and still
// count as a walkable transfer
const DefaultTransferRadiusMeters = 500.0

// Options tunes the planner
type Options struct {
	TransferRadiusMeters float64
}

// Planner resolves an origin/destination pair into a TripPlan
type Planner struct {
	opts   Options
	logger *slog.Logger
}

// New creates a planner. A nil logger uses slog.Default().
func New(logger *slog.Logger, opts Options) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TransferRadiusMeters <= 0 {
		opts.TransferRadiusMeters = DefaultTransferRadiusMeters
	}
	return &Planner{opts: opts, logger: logger}
}

// Plan resolves a trip with default options
func Plan(userLat, userLng float64, destination transit.Stop, stops []transit.Stop, routes []transit.Route) (*TripPlan, error) {
	return New(nil, Options{}).Plan(userLat, userLng, destination, stops, routes)
}

// Plan resolves the rider position and destination into a one- or two-leg
// plan. Failures are always *PlanError.
func (p *Planner) Plan(userLat, userLng float64, destination transit.Stop, stops []transit.Stop, routes []transit.Route) (plan *TripPlan, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("trip planning panicked", "panic", r)
			plan = nil
			err = recoverable("trip planning failed: %v", r)
		}
	}()

	if !geo.IsValidCoordinate(userLat, userLng) {
		return nil, fatal("invalid user coordinates (%v, %v)", userLat, userLng)
	}
	if !transit.ValidID(destination.ID) {
		return nil, fatal("invalid destination stop id %q", destination.ID)
	}

	start, ok := nearestStop(userLat, userLng, stops)
	if !ok {
		return nil, fatal("no stops available")
	}
	if start.ID == destination.ID {
		return nil, fatal("destination %s is the nearest stop to the rider", destination.ID)
	}

	dest := p.resolveDestination(destination, stops)
	if _, _, ok := dest.Position(); !ok {
		return nil, recoverable("destination stop %s has no coordinates", dest.ID)
	}

	startRoutes := validRouteIDs(start.RouteIDs)
	if len(startRoutes) == 0 {
		return nil, recoverable("no routes found for start stop %s", start.ID)
	}
	destRoutes := validRouteIDs(dest.RouteIDs)
	if len(destRoutes) == 0 {
		return nil, recoverable("no routes found for destination stop %s", dest.ID)
	}

	p.logger.Debug("planning trip",
		"start", start.ID, "destination", dest.ID,
		"start_routes", len(startRoutes), "dest_routes", len(destRoutes))

	if routeID, ok := firstCommonRoute(startRoutes, destRoutes); ok {
		leg := newLeg(routeID, routes, start, dest)
		if err := validateLeg(leg); err != nil {
			return nil, recoverable("direct route %s rejected: %v", routeID, err)
		}
		return &TripPlan{
			Legs:          []TripLeg{leg},
			TotalDistance: stopDistance(start, dest),
			Warnings:      []string{},
		}, nil
	}

	if plan := p.findTransfer(start, dest, startRoutes, destRoutes, stops, routes); plan != nil {
		return plan, nil
	}

	return p.fallback(start, dest, startRoutes, routes)
}

func (p *Planner) resolveDestination(destination transit.Stop, stops []transit.Stop) transit.Stop {
	catalog, ok := transit.FindStop(stops, destination.ID)
	if !ok {
		return destination
	}
	dest := destination
	if _, _, ok := dest.Position(); !ok {
		dest.Latitude, dest.Longitude = catalog.Latitude, catalog.Longitude
	}
	if len(dest.RouteIDs) == 0 {
		dest.RouteIDs = catalog.RouteIDs
	}
	if dest.Name == "" {
		dest.Name = catalog.Name
	}
	return dest
}

// findTransfer runs the greedy single-transfer search: outer over start
// routes, inner over destination routes, innermost over stop pairs. Exact
// shared stops are tried before nearby pairs for the same route pair.
func (p *Planner) findTransfer(start, dest transit.Stop, startRoutes, destRoutes []string, stops []transit.Stop, routes []transit.Route) *TripPlan {
	byRoute := stopsByRoute(stops)

	for _, startRoute := range startRoutes {
		for _, destRoute := range destRoutes {
			for _, c := range transferCandidates(byRoute[startRoute], byRoute[destRoute], destRoute, p.opts.TransferRadiusMeters, start.ID, dest.ID) {
				first := newLeg(startRoute, routes, start, c.from)
				first.IsTransfer = true
				second := newLeg(destRoute, routes, c.to, dest)

				if err := validateLeg(first); err != nil {
					p.logger.Debug("transfer candidate rejected", "stop", c.from.ID, "reason", err)
					continue
				}
				if err := validateLeg(second); err != nil {
					p.logger.Debug("transfer candidate rejected", "stop", c.to.ID, "reason", err)
					continue
				}

				warnings := []string{}
				if c.from.ID != c.to.ID {
					warnings = append(warnings, fmt.Sprintf("transfer requires a %.0f m walk from %s to %s",
						stopDistance(c.from, c.to), c.from.Name, c.to.Name))
				}

				p.logger.Info("transfer found",
					"from_route", startRoute, "to_route", destRoute,
					"arrive_stop", c.from.ID, "depart_stop", c.to.ID)

				return &TripPlan{
					Legs:          []TripLeg{first, second},
					TotalDistance: stopDistance(start, c.from) + stopDistance(c.to, dest),
					HasTransfer:   true,
					Warnings:      warnings,
				}
			}
		}
	}
	return nil
}

// fallback returns a degraded single-leg plan on the start stop's first route
func (p *Planner) fallback(start, dest transit.Stop, startRoutes []string, routes []transit.Route) (*TripPlan, error) {
	routeID := startRoutes[0]
	leg := newLeg(routeID, routes, start, dest)
	if err := validateLeg(leg); err != nil {
		return nil, recoverable("fallback route %s rejected: %v", routeID, err)
	}

	p.logger.Warn("no direct or transfer route found, using best-effort plan",
		"start", start.ID, "destination", dest.ID, "route", routeID)

	return &TripPlan{
		Legs:          []TripLeg{leg},
		TotalDistance: stopDistance(start, dest),
		Warnings: []string{
			fmt.Sprintf("No direct or single-transfer route found; showing best-effort route on %s", leg.RouteName),
		},
		MissingShapes: true,
	}, nil
}

type candidate struct {
	from transit.Stop // stop on the arriving route
	to   transit.Stop // stop on the departing route
}

// transferCandidates lists transfer points in search order: every exact
// shared stop, then every nearby pair. The rider's start and destination
// stops never qualify as a transfer point.
func transferCandidates(startStops, destStops []transit.Stop, destRoute string, radius float64, startID, destID string) []candidate {
	var exact, nearby []candidate
	for _, s := range startStops {
		if s.ID == startID || s.ID == destID {
			continue
		}
		if s.ServesRoute(destRoute) {
			exact = append(exact, candidate{from: s, to: s})
		}
	}

	for _, a := range startStops {
		if a.ID == startID || a.ID == destID {
			continue
		}
		for _, b := range destStops {
			if b.ID == startID || b.ID == destID || b.ID == a.ID {
				continue
			}
			if stopDistance(a, b) <= radius {
				nearby = append(nearby, candidate{from: a, to: b})
			}
		}
	}
	return append(exact, nearby...)
}

func nearestStop(lat, lng float64, stops []transit.Stop) (transit.Stop, bool) {
	best := -1
	bestDist := math.MaxFloat64
	for i, s := range stops {
		sLat, sLng, ok := s.Position()
		if !ok || !transit.ValidID(s.ID) {
			continue
		}
		if d := geo.Haversine(lat, lng, sLat, sLng); d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best < 0 {
		return transit.Stop{}, false
	}
	return stops[best], true
}

func stopsByRoute(stops []transit.Stop) map[string][]transit.Stop {
	index := make(map[string][]transit.Stop)
	for _, s := range stops {
		if _, _, ok := s.Position(); !ok || !transit.ValidID(s.ID) {
			continue
		}
		for _, routeID := range s.RouteIDs {
			index[routeID] = append(index[routeID], s)
		}
	}
	return index
}

func firstCommonRoute(startRoutes, destRoutes []string) (string, bool) {
	dest := make(map[string]bool, len(destRoutes))
	for _, id := range destRoutes {
		dest[id] = true
	}
	for _, id := range startRoutes {
		if dest[id] {
			return id, true
		}
	}
	return "", false
}

func validRouteIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if transit.ValidID(id) {
			out = append(out, id)
		}
	}
	return out
}

func newLeg(routeID string, routes []transit.Route, from, to transit.Stop) TripLeg {
	var name string
	if r, ok := transit.FindRoute(routes, routeID); ok {
		name = r.DisplayName()
	}
	return TripLeg{
		RouteID:      routeID,
		RouteName:    name,
		FromStopID:   from.ID,
		FromStopName: from.Name,
		ToStopID:     to.ID,
		ToStopName:   to.Name,
	}
}

func validateLeg(leg TripLeg) error {
	switch {
	case !transit.ValidID(leg.RouteID):
		return fmt.Errorf("invalid route id %q", leg.RouteID)
	case !transit.ValidID(leg.FromStopID):
		return fmt.Errorf("invalid from stop id %q", leg.FromStopID)
	case !transit.ValidID(leg.ToStopID):
		return fmt.Errorf("invalid to stop id %q", leg.ToStopID)
	case leg.RouteName == "":
		return fmt.Errorf("route %s has no name", leg.RouteID)
	case leg.FromStopName == "":
		return fmt.Errorf("stop %s has no name", leg.FromStopID)
	case leg.ToStopName == "":
		return fmt.Errorf("stop %s has no name", leg.ToStopID)
	}
	return nil
}

// stopDistance assumes both stops have valid coordinates
func stopDistance(a, b transit.Stop) float64 {
	aLat, aLng, _ := a.Position()
	bLat, bLng, _ := b.Position()
	return geo.Haversine(aLat, aLng, bLat, bLng)
}
