package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/geo"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/planner"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/transit"
)

// StopLookup resolves stops served by a route from the transit API
type StopLookup interface {
	GetStopsByRoute(ctx context.Context, routeID string) ([]transit.Stop, error)
}

// Generator expands a TripPlan into geofenced tasks
type Generator struct {
	lookup StopLookup
	logger *slog.Logger
}

// NewGenerator creates a task generator. lookup may be nil, in which case
// stops without usable coordinates cause their leg to be skipped.
func NewGenerator(lookup StopLookup, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{lookup: lookup, logger: logger}
}

// Generate emits walk, board and ride tasks per leg, plus a transfer task for
// every non-final transfer leg. Legs whose stops cannot be located are
// skipped; tasks failing validation are dropped.
func (g *Generator) Generate(ctx context.Context, plan *planner.TripPlan, stops []transit.Stop) ([]GameTask, error) {
	if plan == nil {
		return nil, errors.New("trip plan is nil")
	}

	resolver := &stopResolver{lookup: g.lookup, catalog: stops, fetched: make(map[string][]transit.Stop)}
	tasks := make([]GameTask, 0, ExpectedCount(plan))

	for i, leg := range plan.Legs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		from, err := resolver.resolve(ctx, leg.FromStopID, leg.RouteID)
		if err != nil {
			g.logger.Warn("skipping leg: origin stop unavailable", "leg", i, "stop", leg.FromStopID, "error", err)
			continue
		}
		to, err := resolver.resolve(ctx, leg.ToStopID, leg.RouteID)
		if err != nil {
			g.logger.Warn("skipping leg: arrival stop unavailable", "leg", i, "stop", leg.ToStopID, "error", err)
			continue
		}

		candidates := []GameTask{
			walkTask(i, leg, from),
			boardTask(i, leg, from),
			rideTask(i, leg, to),
		}
		if leg.IsTransfer && i < len(plan.Legs)-1 {
			candidates = append(candidates, transferTask(i, leg, plan.Legs[i+1], to))
		}

		for _, task := range candidates {
			if err := validateTask(task); err != nil {
				g.logger.Warn("dropping invalid task", "task", task.ID, "reason", err)
				continue
			}
			tasks = append(tasks, task)
		}
	}

	g.logger.Debug("tasks generated", "legs", len(plan.Legs), "tasks", len(tasks))
	return tasks, nil
}

// ExpectedCount is the number of tasks a fully resolved plan produces
func ExpectedCount(plan *planner.TripPlan) int {
	if plan == nil {
		return 0
	}
	n := 0
	for i, leg := range plan.Legs {
		n += 3
		if leg.IsTransfer && i < len(plan.Legs)-1 {
			n++
		}
	}
	return n
}

type locatedStop struct {
	id, name string
	lat, lng float64
}

type stopResolver struct {
	lookup  StopLookup
	catalog []transit.Stop
	fetched map[string][]transit.Stop // by route id, one remote call per route
}

func (r *stopResolver) resolve(ctx context.Context, stopID, routeID string) (locatedStop, error) {
	catalogStop, inCatalog := transit.FindStop(r.catalog, stopID)
	if inCatalog {
		if lat, lng, ok := catalogStop.Position(); ok {
			return locatedStop{id: stopID, name: catalogStop.Name, lat: lat, lng: lng}, nil
		}
	}

	if r.lookup == nil {
		return locatedStop{}, fmt.Errorf("stop %s has no usable coordinates", stopID)
	}

	remote, ok := r.fetched[routeID]
	if !ok {
		var err error
		remote, err = r.lookup.GetStopsByRoute(ctx, routeID)
		if err != nil {
			r.fetched[routeID] = nil
			return locatedStop{}, fmt.Errorf("failed to look up stops for route %s: %w", routeID, err)
		}
		r.fetched[routeID] = remote
	}

	s, found := transit.FindStop(remote, stopID)
	if !found {
		return locatedStop{}, fmt.Errorf("stop %s not served by route %s", stopID, routeID)
	}
	lat, lng, ok := s.Position()
	if !ok {
		return locatedStop{}, fmt.Errorf("stop %s has no usable coordinates", stopID)
	}

	name := s.Name
	if inCatalog && catalogStop.Name != "" {
		name = catalogStop.Name
	}
	return locatedStop{id: stopID, name: name, lat: lat, lng: lng}, nil
}

func walkTask(legIndex int, leg planner.TripLeg, from locatedStop) GameTask {
	return GameTask{
		ID:          fmt.Sprintf("%s-%d-%s", TaskWalkToStop, legIndex, from.id),
		Type:        TaskWalkToStop,
		Title:       fmt.Sprintf("Walk to %s", from.name),
		Description: fmt.Sprintf("Head to %s to catch the %s", from.name, leg.RouteName),
		StopID:      from.id,
		StopName:    from.name,
		RouteID:     leg.RouteID,
		RouteName:   leg.RouteName,
		GeoFence:    &GeoFence{Latitude: from.lat, Longitude: from.lng, RadiusMeters: WalkRadiusMeters},
		XPReward:    XPWalkToStop,
		LegIndex:    legIndex,
	}
}

func boardTask(legIndex int, leg planner.TripLeg, from locatedStop) GameTask {
	return GameTask{
		ID:          fmt.Sprintf("%s-%d-%s-%s", TaskBoard, legIndex, leg.RouteID, from.id),
		Type:        TaskBoard,
		Title:       fmt.Sprintf("Board the %s", leg.RouteName),
		Description: fmt.Sprintf("Catch the %s at %s", leg.RouteName, from.name),
		StopID:      from.id,
		StopName:    from.name,
		RouteID:     leg.RouteID,
		RouteName:   leg.RouteName,
		GeoFence:    &GeoFence{Latitude: from.lat, Longitude: from.lng, RadiusMeters: BoardRadiusMeters},
		XPReward:    XPBoard,
		LegIndex:    legIndex,
	}
}

func rideTask(legIndex int, leg planner.TripLeg, to locatedStop) GameTask {
	return GameTask{
		ID:          fmt.Sprintf("%s-%d-%s", TaskRide, legIndex, to.id),
		Type:        TaskRide,
		Title:       fmt.Sprintf("Ride to %s", to.name),
		Description: fmt.Sprintf("Stay on the %s until %s", leg.RouteName, to.name),
		StopID:      to.id,
		StopName:    to.name,
		RouteID:     leg.RouteID,
		RouteName:   leg.RouteName,
		GeoFence:    &GeoFence{Latitude: to.lat, Longitude: to.lng, RadiusMeters: RideRadiusMeters},
		XPReward:    XPRide,
		LegIndex:    legIndex,
	}
}

func transferTask(legIndex int, leg, next planner.TripLeg, at locatedStop) GameTask {
	return GameTask{
		ID:          fmt.Sprintf("%s-%d-%s-%s", TaskTransfer, legIndex, at.id, next.RouteID),
		Type:        TaskTransfer,
		Title:       fmt.Sprintf("Transfer to the %s", next.RouteName),
		Description: fmt.Sprintf("Leave the %s at %s and switch to the %s", leg.RouteName, at.name, next.RouteName),
		StopID:      at.id,
		StopName:    at.name,
		RouteID:     next.RouteID,
		RouteName:   next.RouteName,
		GeoFence:    &GeoFence{Latitude: at.lat, Longitude: at.lng, RadiusMeters: TransferRadiusMeters},
		XPReward:    XPTransfer,
		LegIndex:    legIndex,
	}
}

func validateTask(task GameTask) error {
	switch {
	case task.ID == "":
		return errors.New("missing id")
	case !task.Type.valid():
		return fmt.Errorf("unknown type %q", task.Type)
	case task.StopID != "" && !transit.ValidID(task.StopID):
		return fmt.Errorf("invalid stop id %q", task.StopID)
	case task.RouteID != "" && !transit.ValidID(task.RouteID):
		return fmt.Errorf("invalid route id %q", task.RouteID)
	case task.GeoFence == nil:
		return errors.New("missing geofence")
	case !geo.IsValidCoordinate(task.GeoFence.Latitude, task.GeoFence.Longitude):
		return fmt.Errorf("invalid geofence center (%v, %v)", task.GeoFence.Latitude, task.GeoFence.Longitude)
	case !(task.GeoFence.RadiusMeters > 0):
		return fmt.Errorf("invalid geofence radius %v", task.GeoFence.RadiusMeters)
	}
	return nil
}
