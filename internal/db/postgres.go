package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/supervisor"
)

const pgDiagnosticsSchema = `
	CREATE TABLE IF NOT EXISTS supervisor_diagnostics (
		id          TEXT PRIMARY KEY,
		kind        TEXT NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL,
		level       TEXT,
		category    TEXT NOT NULL,
		message     TEXT,
		action      TEXT,
		success     BOOLEAN,
		error       TEXT
	)`

// PGSink ships supervisor diagnostics to Postgres
type PGSink struct {
	pool *pgxpool.Pool
}

// NewPGSink connects to databaseURL and ensures the diagnostics table exists
func NewPGSink(ctx context.Context, databaseURL string) (*PGSink, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, pgDiagnosticsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create diagnostics table: %w", err)
	}

	return &PGSink{pool: pool}, nil
}

// Close releases the pool
func (s *PGSink) Close() {
	s.pool.Close()
}

// RecordLog stores a supervisor diagnostic
func (s *PGSink) RecordLog(ctx context.Context, entry supervisor.DiagnosticLog) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO supervisor_diagnostics (id, kind, recorded_at, level, category, message)
		VALUES ($1, 'log', $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`,
		entry.ID, entry.Timestamp, string(entry.Level), string(entry.Category), entry.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to insert diagnostic %s: %w", entry.ID, err)
	}
	return nil
}

// RecordAutoFix stores a supervisor correction attempt
func (s *PGSink) RecordAutoFix(ctx context.Context, fix supervisor.AutoFix) error {
	var errText *string
	if fix.Error != "" {
		errText = &fix.Error
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO supervisor_diagnostics (id, kind, recorded_at, category, action, success, error)
		VALUES ($1, 'autofix', $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		fix.ID, fix.Timestamp, string(fix.Category), fix.Action, fix.Success, errText,
	)
	if err != nil {
		return fmt.Errorf("failed to insert auto-fix %s: %w", fix.ID, err)
	}
	return nil
}

// countByCategory returns how many entries of the given kind exist per category
func (s *PGSink) countByCategory(ctx context.Context, kind string) (map[string]int, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT category, COUNT(*) FROM supervisor_diagnostics WHERE kind = $1 GROUP BY category", kind)
	if err != nil {
		return nil, fmt.Errorf("failed to count diagnostics: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[category] = n
	}
	return counts, rows.Err()
}
