package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the engine and the GTFS importer
type Config struct {
	// HTTP
	HTTPAddr    string     `env:"HTTP_ADDR" envDefault:":8080"`
	CORSOrigins []string   `env:"CORS_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// Storage
	SQLiteDatabase       string        `env:"SQLITE_DATABASE" envDefault:"data/transit.db"`
	DatabaseURL          string        `env:"DATABASE_URL"` // optional Postgres diagnostics sink
	DiagnosticsRetention time.Duration `env:"DIAGNOSTICS_RETENTION" envDefault:"168h"`

	// Static schedule
	GTFSStaticPath string        `env:"GTFS_STATIC_PATH"`
	CatalogMaxAge  time.Duration `env:"CATALOG_MAX_AGE" envDefault:"168h"` // 0 loads only an empty catalog

	// Real-time
	GTFSVehiclePositionsURL string        `env:"GTFS_VEHICLE_POSITIONS_URL" envDefault:"https://cdn.mbta.com/realtime/VehiclePositions.pb"`
	GTFSTripUpdatesURL      string        `env:"GTFS_TRIP_UPDATES_URL" envDefault:"https://cdn.mbta.com/realtime/TripUpdates.pb"`
	FeedPollInterval        time.Duration `env:"FEED_POLL_INTERVAL" envDefault:"15s"`

	// Transit JSON:API
	TransitAPIURL string `env:"TRANSIT_API_URL" envDefault:"https://api-v3.mbta.com"`
	TransitAPIKey string `env:"TRANSIT_API_KEY"`

	// Supervisor
	SupervisorInterval time.Duration `env:"SUPERVISOR_INTERVAL" envDefault:"3s"`
	GPSStaleAfter      time.Duration `env:"GPS_STALE_AFTER" envDefault:"10s"`
	FeedStaleAfter     time.Duration `env:"FEED_STALE_AFTER" envDefault:"20s"`

	// Transfer confidence
	WalkSpeedMps float64 `env:"WALK_SPEED_MPS" envDefault:"1.4"`
}

// LoadDotenv loads dir/.env, then dir/.env.local which overrides it.
// Missing files are ignored.
func LoadDotenv(dir string) {
	_ = godotenv.Load(filepath.Join(dir, ".env"))
	_ = godotenv.Overload(filepath.Join(dir, ".env.local"))
}

// Load parses configuration from environment variables
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) validate() error {
	var errs []error
	for name, d := range map[string]time.Duration{
		"SUPERVISOR_INTERVAL":   c.SupervisorInterval,
		"GPS_STALE_AFTER":       c.GPSStaleAfter,
		"FEED_STALE_AFTER":      c.FeedStaleAfter,
		"FEED_POLL_INTERVAL":    c.FeedPollInterval,
		"DIAGNOSTICS_RETENTION": c.DiagnosticsRetention,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.WalkSpeedMps <= 0 {
		errs = append(errs, fmt.Errorf("WALK_SPEED_MPS must be positive, got %g", c.WalkSpeedMps))
	}
	return errors.Join(errs...)
}
