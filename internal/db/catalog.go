package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/transit"
)

// StopTime is one scheduled call of a trip at a stop.
// Times are seconds since service-day midnight.
type StopTime struct {
	TripID           string
	RouteID          string
	StopID           string
	Sequence         int
	ArrivalSeconds   *int
	DepartureSeconds *int
}

// Catalog is a full static data set to load in one transaction
type Catalog struct {
	Stops     []transit.Stop
	Routes    []transit.Route
	StopTimes []StopTime
	Parents   map[string]string // platform id -> parent station id
}

// ImportResult summarizes a ReplaceCatalog run
type ImportResult struct {
	ImportID  string
	Stops     int
	Routes    int
	StopTimes int
}

// ReplaceCatalog swaps the stored catalog for cat. Stops with invalid ids and
// memberships pointing at unknown routes are skipped.
func (db *DB) ReplaceCatalog(ctx context.Context, source string, cat Catalog) (ImportResult, error) {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"stop_routes", "stop_times", "stop_parents", "stops", "routes"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return ImportResult{}, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	res := ImportResult{ImportID: uuid.New().String()}

	routeStmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO routes (route_id, route_long_name, route_short_name) VALUES (?, ?, ?)")
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to prepare route statement: %w", err)
	}
	defer routeStmt.Close()

	known := make(map[string]bool, len(cat.Routes))
	for _, r := range cat.Routes {
		if !transit.ValidID(r.ID) {
			continue
		}
		if _, err := routeStmt.ExecContext(ctx, r.ID, r.LongName, r.ShortName); err != nil {
			return ImportResult{}, fmt.Errorf("failed to insert route %s: %w", r.ID, err)
		}
		if !known[r.ID] {
			known[r.ID] = true
			res.Routes++
		}
	}

	stopStmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO stops (stop_id, stop_name, stop_lat, stop_lon) VALUES (?, ?, ?, ?)")
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to prepare stop statement: %w", err)
	}
	defer stopStmt.Close()

	memberStmt, err := tx.PrepareContext(ctx,
		"INSERT OR IGNORE INTO stop_routes (stop_id, route_id, position) VALUES (?, ?, ?)")
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to prepare membership statement: %w", err)
	}
	defer memberStmt.Close()

	for _, s := range cat.Stops {
		if !transit.ValidID(s.ID) {
			continue
		}
		if _, err := stopStmt.ExecContext(ctx, s.ID, s.Name, s.Latitude, s.Longitude); err != nil {
			return ImportResult{}, fmt.Errorf("failed to insert stop %s: %w", s.ID, err)
		}
		res.Stops++
		for i, routeID := range s.RouteIDs {
			if !known[routeID] {
				continue
			}
			if _, err := memberStmt.ExecContext(ctx, s.ID, routeID, i); err != nil {
				return ImportResult{}, fmt.Errorf("failed to insert membership %s/%s: %w", s.ID, routeID, err)
			}
		}
	}

	timeStmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO stop_times (
			trip_id, route_id, stop_id, stop_sequence, arrival_seconds, departure_seconds
		) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to prepare stop_times statement: %w", err)
	}
	defer timeStmt.Close()

	for _, st := range cat.StopTimes {
		if _, err := timeStmt.ExecContext(ctx, st.TripID, st.RouteID, st.StopID, st.Sequence, st.ArrivalSeconds, st.DepartureSeconds); err != nil {
			return ImportResult{}, fmt.Errorf("failed to insert stop time %s/%d: %w", st.TripID, st.Sequence, err)
		}
		res.StopTimes++
	}

	parentStmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO stop_parents (stop_id, parent_station) VALUES (?, ?)")
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to prepare parent statement: %w", err)
	}
	defer parentStmt.Close()

	for stopID, parent := range cat.Parents {
		if _, err := parentStmt.ExecContext(ctx, stopID, parent); err != nil {
			return ImportResult{}, fmt.Errorf("failed to insert parent of %s: %w", stopID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO catalog_imports (import_id, source, imported_at_utc, stop_count, route_count, stop_time_count)
		VALUES (?, ?, ?, ?, ?, ?)`,
		res.ImportID, source, time.Now().UTC().Format(time.RFC3339), res.Stops, res.Routes, res.StopTimes,
	)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to record import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, fmt.Errorf("failed to commit catalog: %w", err)
	}
	return res, nil
}

// routeSeparator joins membership lists in queries. ValidID rejects control
// characters so it never appears inside an id.
const routeSeparator = "\x1f"

// GetAllStops returns every stop with its route membership
func (db *DB) GetAllStops(ctx context.Context) ([]transit.Stop, error) {
	return db.queryStops(ctx, "", nil)
}

// GetStopsByRoute returns the stops served by routeID
func (db *DB) GetStopsByRoute(ctx context.Context, routeID string) ([]transit.Stop, error) {
	return db.queryStops(ctx,
		"WHERE s.stop_id IN (SELECT stop_id FROM stop_routes WHERE route_id = ?)",
		[]any{routeID})
}

func (db *DB) queryStops(ctx context.Context, where string, args []any) ([]transit.Stop, error) {
	query := `
		SELECT s.stop_id, s.stop_name, s.stop_lat, s.stop_lon,
			COALESCE((SELECT group_concat(route_id, char(31)) FROM (
				SELECT route_id FROM stop_routes sr WHERE sr.stop_id = s.stop_id ORDER BY position
			)), '')
		FROM stops s ` + where + `
		ORDER BY s.stop_id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stops: %w", err)
	}
	defer rows.Close()

	stops := []transit.Stop{}
	for rows.Next() {
		var (
			s        transit.Stop
			lat, lon sql.NullFloat64
			routes   string
		)
		if err := rows.Scan(&s.ID, &s.Name, &lat, &lon, &routes); err != nil {
			return nil, fmt.Errorf("failed to scan stop: %w", err)
		}
		if lat.Valid && lon.Valid {
			s.Latitude, s.Longitude = &lat.Float64, &lon.Float64
		}
		if routes != "" {
			s.RouteIDs = strings.Split(routes, routeSeparator)
		}
		stops = append(stops, s)
	}
	return stops, rows.Err()
}

// GetAllRoutes returns every route ordered by id
func (db *DB) GetAllRoutes(ctx context.Context) ([]transit.Route, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT route_id, route_long_name, route_short_name FROM routes ORDER BY route_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()

	routes := []transit.Route{}
	for rows.Next() {
		var r transit.Route
		if err := rows.Scan(&r.ID, &r.LongName, &r.ShortName); err != nil {
			return nil, fmt.Errorf("failed to scan route: %w", err)
		}
		routes = append(routes, r)
	}
	return routes, rows.Err()
}

// StopAliases maps platform ids to their parent station ids
func (db *DB) StopAliases(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT stop_id, parent_station FROM stop_parents")
	if err != nil {
		return nil, fmt.Errorf("failed to query stop parents: %w", err)
	}
	defer rows.Close()

	aliases := make(map[string]string)
	for rows.Next() {
		var stopID, parent string
		if err := rows.Scan(&stopID, &parent); err != nil {
			return nil, fmt.Errorf("failed to scan stop parent: %w", err)
		}
		aliases[stopID] = parent
	}
	return aliases, rows.Err()
}

// LastImport returns when the catalog was last replaced. ok is false when no
// import has been recorded.
func (db *DB) LastImport(ctx context.Context) (at time.Time, ok bool, err error) {
	var raw string
	err = db.conn.QueryRowContext(ctx,
		`SELECT imported_at_utc FROM catalog_imports ORDER BY imported_at_utc DESC LIMIT 1`,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query last import: %w", err)
	}
	at, err = time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse import time %q: %w", raw, err)
	}
	return at, true, nil
}
