// Package static keeps the stored stop catalog fresh from a GTFS zip or the
// transit API.
package static

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/db"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/static/gtfs"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/transit"
)

// DefaultRouteTypes selects light rail and subway routes
const DefaultRouteTypes = "0,1"

// Store is the catalog storage kept fresh here
type Store interface {
	LastImport(ctx context.Context) (time.Time, bool, error)
	ReplaceCatalog(ctx context.Context, source string, cat db.Catalog) (db.ImportResult, error)
}

// RouteSource lists routes and the stops they serve
type RouteSource interface {
	GetRoutes(ctx context.Context, routeTypes string) ([]transit.Route, error)
	GetStopsByRoute(ctx context.Context, routeID string) ([]transit.Stop, error)
}

// Options selects where a refresh loads from. A GTFS zip wins over the API.
type Options struct {
	GTFSPath   string
	API        RouteSource
	RouteTypes string
	MaxAge     time.Duration // zero refreshes only an empty store
	Now        func() time.Time
}

// RefreshIfStale replaces the catalog when nothing was imported yet or the
// last import is older than MaxAge
func RefreshIfStale(ctx context.Context, store Store, opts Options) (bool, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	last, ok, err := store.LastImport(ctx)
	if err != nil {
		return false, err
	}
	if ok && (opts.MaxAge <= 0 || opts.Now().Sub(last) < opts.MaxAge) {
		log.Printf("Catalog is fresh (imported %s), skipping refresh", last.Format(time.RFC3339))
		return false, nil
	}

	var (
		cat    db.Catalog
		source string
	)
	switch {
	case opts.GTFSPath != "":
		log.Printf("Refreshing catalog from GTFS %s...", opts.GTFSPath)
		data, err := gtfs.Parse(opts.GTFSPath)
		if err != nil {
			return false, err
		}
		cat, source = gtfs.BuildCatalog(data), "gtfs:"+opts.GTFSPath
	case opts.API != nil:
		log.Println("Refreshing catalog from transit API...")
		cat, err = FromAPI(ctx, opts.API, opts.RouteTypes)
		if err != nil {
			return false, err
		}
		source = "api"
	default:
		return false, errors.New("no catalog source configured")
	}

	res, err := store.ReplaceCatalog(ctx, source, cat)
	if err != nil {
		return false, err
	}
	log.Printf("Catalog refreshed from %s: %d stops, %d routes, %d stop times", source, res.Stops, res.Routes, res.StopTimes)
	return true, nil
}

// FromAPI builds a catalog from the route and stop endpoints. A stop served
// by several routes appears once with the route ids in route order. Routes
// whose stops cannot be fetched are skipped.
func FromAPI(ctx context.Context, api RouteSource, routeTypes string) (db.Catalog, error) {
	if routeTypes == "" {
		routeTypes = DefaultRouteTypes
	}

	routes, err := api.GetRoutes(ctx, routeTypes)
	if err != nil {
		return db.Catalog{}, fmt.Errorf("failed to fetch routes: %w", err)
	}

	cat := db.Catalog{Routes: routes}
	index := make(map[string]int)
	for _, route := range routes {
		stops, err := api.GetStopsByRoute(ctx, route.ID)
		if err != nil {
			if ctx.Err() != nil {
				return db.Catalog{}, ctx.Err()
			}
			log.Printf("Warning: failed to fetch stops for route %s: %v", route.ID, err)
			continue
		}
		for _, s := range stops {
			i, seen := index[s.ID]
			if !seen {
				s.RouteIDs = nil
				index[s.ID] = len(cat.Stops)
				cat.Stops = append(cat.Stops, s)
				i = len(cat.Stops) - 1
			}
			if !slices.Contains(cat.Stops[i].RouteIDs, route.ID) {
				cat.Stops[i].RouteIDs = append(cat.Stops[i].RouteIDs, route.ID)
			}
		}
	}

	if len(cat.Stops) == 0 {
		return db.Catalog{}, errors.New("transit API returned no stops")
	}
	return cat, nil
}
