package db

import (
	"context"
	"fmt"
	"time"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/supervisor"
)

// RecordLog stores a supervisor diagnostic
func (db *DB) RecordLog(ctx context.Context, entry supervisor.DiagnosticLog) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	_, err := db.conn.ExecContext(ctx, `
		INSERT OR IGNORE INTO diagnostics (id, kind, timestamp_utc, level, category, message)
		VALUES (?, 'log', ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp.UTC().Format(time.RFC3339Nano), string(entry.Level), string(entry.Category), entry.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to insert diagnostic %s: %w", entry.ID, err)
	}
	return nil
}

// RecordAutoFix stores a supervisor correction attempt
func (db *DB) RecordAutoFix(ctx context.Context, fix supervisor.AutoFix) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	var errText *string
	if fix.Error != "" {
		errText = &fix.Error
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT OR IGNORE INTO diagnostics (id, kind, timestamp_utc, category, action, success, error)
		VALUES (?, 'autofix', ?, ?, ?, ?, ?)`,
		fix.ID, fix.Timestamp.UTC().Format(time.RFC3339Nano), string(fix.Category), fix.Action, fix.Success, errText,
	)
	if err != nil {
		return fmt.Errorf("failed to insert auto-fix %s: %w", fix.ID, err)
	}
	return nil
}

// PruneDiagnostics deletes telemetry older than the cutoff and returns the count removed
func (db *DB) PruneDiagnostics(ctx context.Context, olderThan time.Time) (int64, error) {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	res, err := db.conn.ExecContext(ctx,
		"DELETE FROM diagnostics WHERE timestamp_utc < ?",
		olderThan.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune diagnostics: %w", err)
	}
	return res.RowsAffected()
}
