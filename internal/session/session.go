// Package session holds one rider's live trip: position, destination, plan,
// tasks and the latest live data. It is the corrective adapter the
// supervisor drives.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/confidence"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/geo"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/planner"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/realtime"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/supervisor"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/tasks"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/transit"
)

var (
	ErrNoPosition          = errors.New("no GPS position reported")
	ErrInvalidPosition     = errors.New("invalid GPS coordinates")
	ErrUnknownDestination  = errors.New("destination stop not in catalog")
	ErrNoFeed              = errors.New("no live data source configured")
	ErrCatalogEmpty        = errors.New("stop catalog is empty")
	ErrDestinationRequired = errors.New("destination stop id is required")
)

// Catalog supplies the static stop and route data
type Catalog interface {
	GetAllStops(ctx context.Context) ([]transit.Stop, error)
	GetAllRoutes(ctx context.Context) ([]transit.Route, error)
}

// Deps wires a Session. Only Supervisor, Planner and Generator are required.
type Deps struct {
	Catalog    Catalog
	Planner    *planner.Planner
	Generator  *tasks.Generator
	Feed       realtime.Source
	Schedule   confidence.ScheduleSource
	Supervisor *supervisor.Supervisor
	Confidence confidence.Options
	Logger     *slog.Logger
	Now        func() time.Time
}

// View is a copy of the session for API responses
type View struct {
	Destination         string                          `json:"destinationStopId,omitempty"`
	Position            *Position                       `json:"position,omitempty"`
	TripPlan            *planner.TripPlan               `json:"tripPlan"`
	Tasks               []tasks.GameTask                `json:"tasks"`
	EarnedXP            int                             `json:"earnedXp"`
	Confidence          []confidence.TransferConfidence `json:"transferConfidence"`
	FeedUpdatedAt       *time.Time                      `json:"feedUpdatedAt,omitempty"`
	GPSRestartRequested bool                            `json:"gpsRestartRequested"`
}

// Position is the rider's last reported fix
type Position struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	At        time.Time `json:"at"`
}

// Session implements supervisor.Callbacks
type Session struct {
	deps   Deps
	logger *slog.Logger
	now    func() time.Time

	mu          sync.Mutex
	stops       []transit.Stop
	routes      []transit.Route
	position    *Position
	destination string
	plan        *planner.TripPlan
	tasks       []tasks.GameTask
	live        realtime.Snapshot
	restartGPS  bool
}

var _ supervisor.Callbacks = (*Session)(nil)

// New creates an empty session
func New(deps Deps) *Session {
	s := &Session{deps: deps, logger: deps.Logger, now: deps.Now}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// ReloadCatalog replaces the in-memory stops and routes from the catalog
func (s *Session) ReloadCatalog(ctx context.Context) error {
	if s.deps.Catalog == nil {
		return nil
	}
	stops, err := s.deps.Catalog.GetAllStops(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stops: %w", err)
	}
	routes, err := s.deps.Catalog.GetAllRoutes(ctx)
	if err != nil {
		return fmt.Errorf("failed to load routes: %w", err)
	}
	s.SetCatalog(stops, routes)
	s.logger.Info("catalog loaded", "stops", len(stops), "routes", len(routes))
	return nil
}

// SetCatalog replaces the in-memory stops and routes
func (s *Session) SetCatalog(stops []transit.Stop, routes []transit.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops = stops
	s.routes = routes
}

// Catalog returns the in-memory stops and routes
func (s *Session) Catalog() ([]transit.Stop, []transit.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops, s.routes
}

// UpdatePosition records a GPS fix and auto-checks tasks against it
func (s *Session) UpdatePosition(lat, lng float64, at time.Time) ([]tasks.GameTask, error) {
	if !geo.IsValidCoordinate(lat, lng) {
		return nil, fmt.Errorf("%w: %f, %f", ErrInvalidPosition, lat, lng)
	}
	if at.IsZero() {
		at = s.now()
	}

	// The supervisor is updated under the session lock so concurrent
	// updates reach it in the order they were applied here.
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = &Position{Latitude: lat, Longitude: lng, At: at}
	s.restartGPS = false
	checked := s.checkTasksLocked()
	s.deps.Supervisor.SetGPSActive(true)
	s.deps.Supervisor.ReportGPS(lat, lng, at)
	s.deps.Supervisor.UpdateTasks(checked)
	return checked, nil
}

// StopTracking marks GPS tracking as switched off by the rider
func (s *Session) StopTracking() {
	s.deps.Supervisor.SetGPSActive(false)
}

// SetDestination plans a trip to the stop and generates fresh tasks
func (s *Session) SetDestination(ctx context.Context, stopID string) (*planner.TripPlan, []tasks.GameTask, error) {
	if stopID == "" {
		return nil, nil, ErrDestinationRequired
	}

	plan, err := s.planTo(stopID)
	if err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	s.destination = stopID
	s.plan = plan
	s.tasks = nil
	s.deps.Supervisor.UpdateTripPlan(plan, stopID)
	s.deps.Supervisor.UpdateTasks(nil)
	s.mu.Unlock()

	list, err := s.regenerate(ctx, plan, false)
	if err != nil {
		return plan, nil, err
	}
	return plan, list, nil
}

// ClearDestination ends the current trip
func (s *Session) ClearDestination() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destination = ""
	s.plan = nil
	s.tasks = nil
	s.deps.Supervisor.UpdateTripPlan(nil, "")
	s.deps.Supervisor.UpdateTasks(nil)
}

// View returns a snapshot of the session with fresh transfer confidence
func (s *Session) View(ctx context.Context) View {
	s.mu.Lock()
	v := View{
		Destination:         s.destination,
		TripPlan:            s.plan,
		Tasks:               append([]tasks.GameTask(nil), s.tasks...),
		GPSRestartRequested: s.restartGPS,
	}
	if s.position != nil {
		p := *s.position
		v.Position = &p
	}
	if !s.live.FetchedAt.IsZero() {
		t := s.live.FetchedAt
		v.FeedUpdatedAt = &t
	}
	predictions := s.live.Predictions
	s.mu.Unlock()

	v.EarnedXP = tasks.EarnedXP(v.Tasks)
	v.Confidence = s.confidence(ctx, v.TripPlan, predictions)
	return v
}

func (s *Session) confidence(ctx context.Context, plan *planner.TripPlan, predictions []transit.Prediction) []confidence.TransferConfidence {
	if plan == nil {
		return []confidence.TransferConfidence{}
	}
	return confidence.EvaluateWithSchedule(ctx, plan, predictions, s.deps.Schedule, s.now(), s.deps.Confidence)
}

// RestartGPS flags the client to re-acquire its position. The server has no
// device to restart; the flag clears on the next reported fix.
func (s *Session) RestartGPS(ctx context.Context) error {
	s.mu.Lock()
	s.restartGPS = true
	s.mu.Unlock()
	s.deps.Supervisor.SetGPSActive(true)
	s.logger.Info("requested GPS restart from client")
	return nil
}

// RefreshFeed pulls live data for the planned routes and re-checks tasks
func (s *Session) RefreshFeed(ctx context.Context) error {
	if s.deps.Feed == nil {
		return ErrNoFeed
	}

	s.mu.Lock()
	routeIDs := planRoutes(s.plan)
	s.mu.Unlock()

	snap, err := s.deps.Feed.Fetch(ctx, routeIDs)
	if err != nil {
		return fmt.Errorf("failed to refresh live data: %w", err)
	}
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = snap
	checked := s.checkTasksLocked()
	s.deps.Supervisor.ReportFeedUpdate(snap.FetchedAt)
	s.deps.Supervisor.UpdateTasks(checked)
	return nil
}

// RegenerateTripPlan plans again from the last position to the destination
func (s *Session) RegenerateTripPlan(ctx context.Context, destinationStopID string) (*planner.TripPlan, error) {
	plan, err := s.planTo(destinationStopID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.destination = destinationStopID
	s.plan = plan
	s.mu.Unlock()
	return plan, nil
}

// RegenerateTasks rebuilds tasks for plan. With preserveCompleted, tasks
// already done keep their completion.
func (s *Session) RegenerateTasks(ctx context.Context, plan *planner.TripPlan, preserveCompleted bool) ([]tasks.GameTask, error) {
	return s.regenerate(ctx, plan, preserveCompleted)
}

func (s *Session) regenerate(ctx context.Context, plan *planner.TripPlan, preserveCompleted bool) ([]tasks.GameTask, error) {
	s.mu.Lock()
	stops := s.stops
	s.mu.Unlock()

	list, err := s.deps.Generator.Generate(ctx, plan, stops)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if preserveCompleted {
		list = tasks.MergeCompleted(s.tasks, list)
	}
	s.tasks = list
	checked := s.checkTasksLocked()
	s.deps.Supervisor.UpdateTasks(checked)
	return checked, nil
}

func (s *Session) planTo(destinationStopID string) (*planner.TripPlan, error) {
	s.mu.Lock()
	pos := s.position
	stops, routes := s.stops, s.routes
	s.mu.Unlock()

	if pos == nil {
		return nil, ErrNoPosition
	}
	if len(stops) == 0 {
		return nil, ErrCatalogEmpty
	}
	dest, ok := transit.FindStop(stops, destinationStopID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDestination, destinationStopID)
	}
	return s.deps.Planner.Plan(pos.Latitude, pos.Longitude, dest, stops, routes)
}

// checkTasksLocked marks tasks completed from the current position and live data
func (s *Session) checkTasksLocked() []tasks.GameTask {
	if s.position == nil || len(s.tasks) == 0 {
		return append([]tasks.GameTask(nil), s.tasks...)
	}
	before := tasks.EarnedXP(s.tasks)
	s.tasks = tasks.CheckAll(s.tasks, tasks.Snapshot{
		UserLat:     s.position.Latitude,
		UserLng:     s.position.Longitude,
		Vehicles:    s.live.Vehicles,
		Predictions: s.live.Predictions,
		Now:         s.now(),
	})
	if after := tasks.EarnedXP(s.tasks); after > before {
		s.logger.Info("tasks completed", "xp_gained", after-before, "xp_total", after)
	}
	return append([]tasks.GameTask(nil), s.tasks...)
}

func planRoutes(plan *planner.TripPlan) []string {
	if plan == nil {
		return nil
	}
	var ids []string
	seen := make(map[string]bool)
	for _, leg := range plan.Legs {
		if !seen[leg.RouteID] {
			seen[leg.RouteID] = true
			ids = append(ids, leg.RouteID)
		}
	}
	return ids
}
