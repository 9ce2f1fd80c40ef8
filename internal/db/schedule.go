package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const secondsPerDay = 24 * 3600

// ScheduledArrival is the first scheduled arrival of routeID at stopID at or
// after the given time. It returns nil when the stop has no timetable.
func (db *DB) ScheduledArrival(ctx context.Context, stopID, routeID string, after time.Time) (*time.Time, error) {
	return db.nextScheduled(ctx, "COALESCE(arrival_seconds, departure_seconds)", stopID, routeID, after)
}

// ScheduledDeparture is the first scheduled departure of routeID from stopID at
// or after the given time. It returns nil when the stop has no timetable.
func (db *DB) ScheduledDeparture(ctx context.Context, stopID, routeID string, after time.Time) (*time.Time, error) {
	return db.nextScheduled(ctx, "departure_seconds", stopID, routeID, after)
}

// nextScheduled looks in the current service day first, including GTFS times
// past 24:00 from the previous day, then wraps to the first call tomorrow.
func (db *DB) nextScheduled(ctx context.Context, column, stopID, routeID string, after time.Time) (*time.Time, error) {
	midnight := time.Date(after.Year(), after.Month(), after.Day(), 0, 0, 0, 0, after.Location())
	now := SecondsSinceMidnight(after)

	query := fmt.Sprintf(`
		SELECT MIN(t) FROM (SELECT %s AS t FROM stop_times WHERE stop_id = ? AND route_id = ?)
		WHERE t IS NOT NULL AND t >= ?`, column)

	candidates := []struct {
		base time.Time
		from int
	}{
		{midnight.AddDate(0, 0, -1), now + secondsPerDay}, // yesterday's service running past midnight
		{midnight, now},
		{midnight.AddDate(0, 0, 1), 0},
	}

	var best *time.Time
	for _, c := range candidates {
		var secs sql.NullInt64
		if err := db.conn.QueryRowContext(ctx, query, stopID, routeID, c.from).Scan(&secs); err != nil {
			return nil, fmt.Errorf("failed to query schedule for %s/%s: %w", stopID, routeID, err)
		}
		if !secs.Valid {
			continue
		}
		at := c.base.Add(time.Duration(secs.Int64) * time.Second)
		if best == nil || at.Before(*best) {
			best = &at
		}
	}
	return best, nil
}

// SecondsSinceMidnight returns the seconds elapsed since midnight in t's location
func SecondsSinceMidnight(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}
