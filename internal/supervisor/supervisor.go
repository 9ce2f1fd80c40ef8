package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/planner"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/tasks"
)

// Option configures a Supervisor
type Option func(*Supervisor)

// WithInterval sets the tick period
func WithInterval(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithGPSStaleAfter sets how old a GPS fix may get before it is stale
func WithGPSStaleAfter(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.th.gpsStaleAfter = d
		}
	}
}

// WithFeedStaleAfter sets how old live transit data may get before it is stale
func WithFeedStaleAfter(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.th.feedStaleAfter = d
		}
	}
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Supervisor) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger mirrors every diagnostic to logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSink persists every diagnostic and auto-fix. Writes happen off the
// tick path; see Flush and Close.
func WithSink(sink Sink) Option {
	return func(s *Supervisor) {
		s.sink = sink
	}
}

// WithSinkTimeout bounds each sink write
func WithSinkTimeout(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.sinkTimeout = d
		}
	}
}

// Supervisor periodically checks GPS, live data, trip plan and tasks, and
// invokes corrective callbacks for whatever is unhealthy.
type Supervisor struct {
	interval time.Duration
	th       thresholds
	now      func() time.Time
	logger   *slog.Logger
	broker   *broker

	sink        Sink
	sinkTimeout time.Duration
	writer      *sinkWriter

	mu      sync.Mutex
	obs     observation
	taskGen uint64 // bumped on every task list change

	gps      GPSHealth
	feed     FeedHealth
	tripPlan TripPlanHealth
	tasks    TasksHealth
	errors   *ring[DiagnosticLog]
	warnings *ring[DiagnosticLog]
	fixes    *ring[AutoFix]
	lastTick time.Time
	ticks    int

	callbacks Callbacks
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// New creates a stopped supervisor
func New(opts ...Option) *Supervisor {
	s := &Supervisor{
		interval: DefaultInterval,
		th: thresholds{
			gpsStaleAfter:  DefaultGPSStaleAfter,
			feedStaleAfter: DefaultFeedStaleAfter,
		},
		now:         time.Now,
		logger:      slog.Default(),
		broker:      newBroker(),
		sinkTimeout: DefaultSinkTimeout,
		errors:      newRing[DiagnosticLog](MaxErrors),
		warnings:    newRing[DiagnosticLog](MaxWarnings),
		fixes:       newRing[AutoFix](MaxAutoFixes),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sink != nil {
		s.writer = newSinkWriter(s.sink, s.sinkTimeout, s.logger)
	}
	return s
}

// Start runs one tick immediately and then one per interval until ctx is
// canceled or Stop is called. It returns false if already running.
func (s *Supervisor) Start(ctx context.Context, callbacks Callbacks) bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.running = true
	s.callbacks = callbacks
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	s.logger.Info("supervisor started", "interval", s.interval)
	go s.loop(ctx, done)
	return true
}

// Stop cancels the loop and waits for the in-flight tick to finish.
// It must not be called from inside a callback.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
	s.logger.Info("supervisor stopped")
}

// Close stops the loop and writes any queued sink records
func (s *Supervisor) Close() {
	s.Stop()
	if s.writer != nil {
		s.writer.close()
	}
}

// Flush waits for sink records queued so far to be written
func (s *Supervisor) Flush(ctx context.Context) error {
	if s.writer == nil {
		return nil
	}
	return s.writer.flush(ctx)
}

// Running reports whether the loop is active
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Supervisor) loop(ctx context.Context, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		if s.done == done {
			s.running = false
		}
		s.mu.Unlock()
		close(done)
	}()

	s.Tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs the four health checks and then the corrections in order
// GPS, feed, trip plan, tasks. Callbacks come from the last Start call.
func (s *Supervisor) Tick(ctx context.Context) {
	s.mu.Lock()
	now := s.now()
	obs := s.obs
	obs.tasks = append([]tasks.GameTask(nil), s.obs.tasks...)
	cb := s.callbacks
	s.mu.Unlock()

	r := evaluate(obs, now, s.th)

	s.mu.Lock()
	s.gps, s.feed, s.tripPlan, s.tasks = r.gps, r.feed, r.tripPlan, r.tasks
	s.lastTick = now
	s.ticks++
	s.mu.Unlock()

	for _, is := range r.issues {
		s.record(ctx, is.level, is.category, is.message)
	}

	if cb != nil {
		s.correct(ctx, cb, r, obs.destination)
	}

	state := s.State()
	s.broker.publish(Event{Type: EventTick, State: &state})
}

func (s *Supervisor) correct(ctx context.Context, cb Callbacks, r report, destination string) {
	if r.restartGPS {
		s.attempt(ctx, CategoryGPS, "restart_gps", cb.RestartGPS)
	}
	if r.refreshFeed {
		s.attempt(ctx, CategoryFeed, "refresh_feed", cb.RefreshFeed)
	}

	replaced := false
	if r.regeneratePlan && destination != "" {
		s.attempt(ctx, CategoryTripPlan, "regenerate_trip_plan", func(ctx context.Context) error {
			plan, err := cb.RegenerateTripPlan(ctx, destination)
			if err != nil {
				return err
			}
			if plan == nil {
				return fmt.Errorf("no plan returned for destination %s", destination)
			}
			s.UpdateTripPlan(plan, destination)
			replaced = true
			return nil
		})
	}

	// Tasks are judged against the plan as it stands after the plan correction.
	if !r.regenerateTasks && !replaced {
		return
	}
	s.mu.Lock()
	plan := s.obs.plan
	gen := s.taskGen
	s.mu.Unlock()
	if plan == nil {
		return
	}
	s.attempt(ctx, CategoryTasks, "regenerate_tasks", func(ctx context.Context) error {
		regenerated, err := cb.RegenerateTasks(ctx, plan, true)
		if err != nil {
			return err
		}
		s.replaceTasks(gen, regenerated)
		return nil
	})
}

// attempt runs one correction, converting errors and panics into a failed AutoFix
func (s *Supervisor) attempt(ctx context.Context, category Category, action string, fn func(context.Context) error) {
	var err error
	func() {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("panic: %v", p)
			}
		}()
		err = fn(ctx)
	}()

	fix := AutoFix{
		ID:        uuid.NewString(),
		Timestamp: s.now(),
		Category:  category,
		Action:    action,
		Success:   err == nil,
	}
	if err != nil {
		fix.Error = err.Error()
	}

	s.mu.Lock()
	s.fixes.push(fix)
	s.mu.Unlock()

	if err != nil {
		s.record(ctx, LevelError, category, fmt.Sprintf("auto-fix %s failed: %v", action, err))
	} else {
		s.logger.Info("auto-fix applied", "category", category, "action", action)
	}
	if s.writer != nil {
		s.writer.enqueue(sinkWrite{fix: &fix})
	}
	s.broker.publish(Event{Type: EventAutoFix, AutoFix: &fix})
}

// record appends a diagnostic. Info entries are mirrored but not retained.
func (s *Supervisor) record(_ context.Context, level Level, category Category, message string) {
	entry := DiagnosticLog{
		ID:        uuid.NewString(),
		Timestamp: s.now(),
		Level:     level,
		Category:  category,
		Message:   message,
	}

	s.mu.Lock()
	switch level {
	case LevelError:
		s.errors.push(entry)
	case LevelWarning:
		s.warnings.push(entry)
	}
	s.mu.Unlock()

	attrs := []any{"category", category, "id", entry.ID}
	switch level {
	case LevelError:
		s.logger.Error(message, attrs...)
	case LevelWarning:
		s.logger.Warn(message, attrs...)
	default:
		s.logger.Info(message, attrs...)
	}
	if s.writer != nil {
		s.writer.enqueue(sinkWrite{log: &entry})
	}
	s.broker.publish(Event{Type: EventLog, Log: &entry})
}

// Log appends a diagnostic from outside the loop, e.g. a failed feed poll
func (s *Supervisor) Log(ctx context.Context, level Level, category Category, message string) {
	s.record(ctx, level, category, message)
}

// UpdateTripPlan replaces the supervised plan and destination. A nil plan clears it.
func (s *Supervisor) UpdateTripPlan(plan *planner.TripPlan, destinationStopID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.obs.plan = plan
	s.obs.destination = destinationStopID
}

// UpdateTasks replaces the supervised task list
func (s *Supervisor) UpdateTasks(list []tasks.GameTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.obs.tasks = append([]tasks.GameTask(nil), list...)
	s.taskGen++
}

// replaceTasks applies a regenerated list unless the tasks were updated
// while it was being built; the newer list wins.
func (s *Supervisor) replaceTasks(gen uint64, list []tasks.GameTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.taskGen != gen {
		return
	}
	s.obs.tasks = append([]tasks.GameTask(nil), list...)
	s.taskGen++
}

// ReportGPS records a position fix taken at the given time
func (s *Supervisor) ReportGPS(lat, lng float64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.obs.gpsHasFix = true
	s.obs.gpsLat = lat
	s.obs.gpsLng = lng
	s.obs.gpsUpdatedAt = at
}

// SetGPSActive records whether position tracking is switched on
func (s *Supervisor) SetGPSActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.obs.gpsActive = active
}

// ReportFeedUpdate records a successful live data refresh
func (s *Supervisor) ReportFeedUpdate(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.obs.feedUpdatedAt = at
}

// State returns a deep copy of the current health records and logs
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		GPS:       s.gps,
		Feed:      s.feed,
		TripPlan:  s.tripPlan,
		Tasks:     s.tasks,
		Errors:    s.errors.snapshot(),
		Warnings:  s.warnings.snapshot(),
		AutoFixes: s.fixes.snapshot(),
		IsRunning: s.running,
		Ticks:     s.ticks,
	}
	st.GPS.LastUpdate = copyTime(s.gps.LastUpdate)
	st.Feed.LastUpdate = copyTime(s.feed.LastUpdate)
	if !s.lastTick.IsZero() {
		t := s.lastTick
		st.LastTick = &t
	}
	return st
}

// ClearLogs empties the error, warning and auto-fix buffers
func (s *Supervisor) ClearLogs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors.clear()
	s.warnings.clear()
	s.fixes.clear()
}

// Subscribe returns a channel of events and a function that releases it.
// Events are dropped for subscribers that fall behind.
func (s *Supervisor) Subscribe() (<-chan Event, func()) {
	ch := s.broker.subscribe()
	return ch, func() { s.broker.unsubscribe(ch) }
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
