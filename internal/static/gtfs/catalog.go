package gtfs

import (
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/db"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/transit"
)

// BuildCatalog converts parsed GTFS into the stored catalog.
//
// Only stations and platforms without a station become catalog stops, so
// plans, live predictions and scheduled calls all use station ids. Route
// membership is derived from trips and stop_times in file order and rolled
// up from platforms to their station; platform ids are kept as aliases.
func BuildCatalog(data *Data) db.Catalog {
	var cat db.Catalog

	for _, r := range data.Routes {
		cat.Routes = append(cat.Routes, transit.Route{
			ID:        r.RouteID,
			LongName:  r.RouteLongName,
			ShortName: r.RouteShortName,
		})
	}

	stations := make(map[string]bool)
	for _, s := range data.Stops {
		if s.LocationType == LocationStation {
			stations[s.StopID] = true
		}
	}
	parent := make(map[string]string)
	for _, s := range data.Stops {
		if s.LocationType == LocationStop && stations[s.ParentStation] {
			parent[s.StopID] = s.ParentStation
		}
	}
	cat.Parents = parent
	stationOf := func(stopID string) string {
		if p, ok := parent[stopID]; ok {
			return p
		}
		return stopID
	}

	tripRoute := make(map[string]string, len(data.Trips))
	for _, t := range data.Trips {
		tripRoute[t.TripID] = t.RouteID
	}

	membership := make(map[string][]string)
	addRoute := func(stopID, routeID string) {
		for _, existing := range membership[stopID] {
			if existing == routeID {
				return
			}
		}
		membership[stopID] = append(membership[stopID], routeID)
	}

	for _, st := range data.StopTimes {
		routeID, ok := tripRoute[st.TripID]
		if !ok {
			continue
		}
		station := stationOf(st.StopID)
		addRoute(station, routeID)

		cat.StopTimes = append(cat.StopTimes, db.StopTime{
			TripID:           st.TripID,
			RouteID:          routeID,
			StopID:           station,
			Sequence:         st.StopSequence,
			ArrivalSeconds:   seconds(st.ArrivalTime),
			DepartureSeconds: seconds(st.DepartureTime),
		})
	}

	for _, s := range data.Stops {
		if s.LocationType != LocationStop && s.LocationType != LocationStation {
			continue
		}
		if _, isPlatform := parent[s.StopID]; isPlatform {
			continue
		}
		cat.Stops = append(cat.Stops, transit.Stop{
			ID:        s.StopID,
			Name:      s.StopName,
			Latitude:  s.StopLat,
			Longitude: s.StopLon,
			RouteIDs:  membership[s.StopID],
		})
	}

	return cat
}

func seconds(timeStr string) *int {
	v, ok := ParseTimeToSeconds(timeStr)
	if !ok {
		return nil
	}
	return &v
}
