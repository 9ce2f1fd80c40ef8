// Command engine serves the trip decision engine: planning, tasks, transfer
// confidence and the self-healing supervisor behind one HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/api"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/confidence"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/config"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/db"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/planner"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/realtime"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/session"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/static"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/supervisor"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/tasks"
)

const maintenanceInterval = 24 * time.Hour

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	config.LoadDotenv(".")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	database, err := db.Connect(cfg.SQLiteDatabase)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.SQLiteDatabase)

	// --- Diagnostics sinks ---
	var sink supervisor.Sink = database
	if cfg.DatabaseURL != "" {
		pg, err := db.NewPGSink(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer pg.Close()
		sink = supervisor.MultiSink(database, pg)
		logger.Info("mirroring diagnostics to postgres")
	}

	// --- Catalog ---
	apiClient := realtime.NewAPIClient(cfg.TransitAPIURL, cfg.TransitAPIKey, nil, logger)
	refresh := static.Options{
		GTFSPath: cfg.GTFSStaticPath,
		API:      apiClient,
		MaxAge:   cfg.CatalogMaxAge,
	}
	if _, err := static.RefreshIfStale(ctx, database, refresh); err != nil {
		// Serve whatever catalog is stored; planning reports the gap.
		logger.Warn("catalog refresh failed", "error", err)
	}

	feed := realtime.NewFeedClient(cfg.GTFSVehiclePositionsURL, cfg.GTFSTripUpdatesURL, nil, logger)

	// --- Engine ---
	sup := supervisor.New(
		supervisor.WithInterval(cfg.SupervisorInterval),
		supervisor.WithGPSStaleAfter(cfg.GPSStaleAfter),
		supervisor.WithFeedStaleAfter(cfg.FeedStaleAfter),
		supervisor.WithLogger(logger.With("component", "supervisor")),
		supervisor.WithSink(sink),
	)
	tripPlanner := planner.New(logger.With("component", "planner"), planner.Options{})
	gen := tasks.NewGenerator(apiClient, logger.With("component", "tasks"))
	conf := confidence.Options{WalkSpeedMps: cfg.WalkSpeedMps}

	sess := session.New(session.Deps{
		Catalog:    database,
		Planner:    tripPlanner,
		Generator:  gen,
		Feed:       feed,
		Schedule:   database,
		Supervisor: sup,
		Confidence: conf,
		Logger:     logger.With("component", "session"),
	})
	cat := &catalog{db: database, session: sess, aliasSinks: []aliasSink{feed, apiClient}}
	if err := cat.reload(ctx); err != nil {
		return err
	}

	handler := api.NewHandler(api.Config{
		Planner:    tripPlanner,
		Generator:  gen,
		Session:    sess,
		Supervisor: sup,
		Schedule:   database,
		Confidence: conf,
		DB:         database,
		Logger:     logger.With("component", "api"),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(handler, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		sup.Start(gctx, sess)
		<-gctx.Done()
		sup.Close()
		return nil
	})

	g.Go(func() error {
		return sess.PollFeed(gctx, cfg.FeedPollInterval)
	})

	g.Go(func() error {
		maintain(gctx, logger, cat, refresh, cfg.DiagnosticsRetention)
		return nil
	})

	return g.Wait()
}

// aliasSink receives the platform to station map on every catalog load
type aliasSink interface {
	SetAliases(map[string]string)
}

// catalog reloads everything derived from the stored stop catalog
type catalog struct {
	db         *db.DB
	session    *session.Session
	aliasSinks []aliasSink
}

func (c *catalog) reload(ctx context.Context) error {
	if err := c.session.ReloadCatalog(ctx); err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	aliases, err := c.db.StopAliases(ctx)
	if err != nil {
		return fmt.Errorf("loading stop aliases: %w", err)
	}
	for _, sink := range c.aliasSinks {
		sink.SetAliases(aliases)
	}
	return nil
}

// maintain prunes old diagnostics and refreshes a stale catalog once a day
func maintain(ctx context.Context, logger *slog.Logger, cat *catalog, refresh static.Options, retention time.Duration) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pruned, err := cat.db.PruneDiagnostics(ctx, time.Now().Add(-retention))
			if err != nil {
				logger.Warn("diagnostics cleanup failed", "error", err)
			} else if pruned > 0 {
				logger.Info("diagnostics pruned", "rows", pruned)
			}

			refreshed, err := static.RefreshIfStale(ctx, cat.db, refresh)
			if err != nil {
				logger.Warn("catalog refresh failed", "error", err)
				continue
			}
			if refreshed {
				if err := cat.reload(ctx); err != nil {
					logger.Warn("catalog reload failed", "error", err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
