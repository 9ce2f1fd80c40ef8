// Package api exposes the decision engine over HTTP.
package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/confidence"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/planner"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/session"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/supervisor"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/tasks"
)

// Pinger reports storage connectivity for /health
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config wires a Handler. Schedule and DB are optional.
type Config struct {
	Planner    *planner.Planner
	Generator  *tasks.Generator
	Session    *session.Session
	Supervisor *supervisor.Supervisor
	Schedule   confidence.ScheduleSource
	Confidence confidence.Options
	DB         Pinger
	Logger     *slog.Logger
	Now        func() time.Time
}

// Handler handles HTTP requests for planning, tasks, the live session and
// supervisor diagnostics
type Handler struct {
	planner    *planner.Planner
	generator  *tasks.Generator
	session    *session.Session
	supervisor *supervisor.Supervisor
	schedule   confidence.ScheduleSource
	confidence confidence.Options
	db         Pinger
	logger     *slog.Logger
	now        func() time.Time

	keepAlive time.Duration
}

// NewHandler creates a new handler from cfg
func NewHandler(cfg Config) *Handler {
	h := &Handler{
		planner:    cfg.Planner,
		generator:  cfg.Generator,
		session:    cfg.Session,
		supervisor: cfg.Supervisor,
		schedule:   cfg.Schedule,
		confidence: cfg.Confidence,
		db:         cfg.DB,
		logger:     cfg.Logger,
		now:        cfg.Now,
		keepAlive:  15 * time.Second,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}
