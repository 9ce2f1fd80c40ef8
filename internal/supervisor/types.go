package supervisor

import (
	"context"
	"time"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/planner"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/tasks"
)

// Level is the severity of a diagnostic entry
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Category is the subsystem a diagnostic entry or auto-fix belongs to
type Category string

const (
	CategoryGPS      Category = "gps"
	CategoryFeed     Category = "feed"
	CategoryTripPlan Category = "trip_plan"
	CategoryTasks    Category = "tasks"
	CategorySystem   Category = "system"
)

// Buffer capacities
const (
	MaxErrors    = 50
	MaxWarnings  = 50
	MaxAutoFixes = 20
)

// Default timings
const (
	DefaultInterval       = 3000 * time.Millisecond
	DefaultGPSStaleAfter  = 10000 * time.Millisecond
	DefaultFeedStaleAfter = 20000 * time.Millisecond
)

// DiagnosticLog is a timestamped, categorized anomaly record
type DiagnosticLog struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	Category  Category  `json:"category"`
	Message   string    `json:"message"`
}

// AutoFix records one correction attempt and its outcome
type AutoFix struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Category  Category  `json:"category"`
	Action    string    `json:"action"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// GPSHealth is the GPS subsystem snapshot
type GPSHealth struct {
	Active           bool       `json:"active"`
	ValidCoordinates bool       `json:"validCoordinates"`
	LastUpdate       *time.Time `json:"lastUpdate"`
	AgeMillis        int64      `json:"ageMillis"` // -1 when no update has been received
	Stale            bool       `json:"stale"`
	Healthy          bool       `json:"healthy"`
}

// FeedHealth is the live transit feed snapshot. Staleness is only judged
// while a plan with legs exists.
type FeedHealth struct {
	Checked    bool       `json:"checked"`
	LastUpdate *time.Time `json:"lastUpdate"`
	AgeMillis  int64      `json:"ageMillis"`
	Stale      bool       `json:"stale"`
	Healthy    bool       `json:"healthy"`
}

// TripPlanHealth is the itinerary snapshot
type TripPlanHealth struct {
	Present           bool   `json:"present"`
	Valid             bool   `json:"valid"`
	LegCount          int    `json:"legCount"`
	DestinationStopID string `json:"destinationStopId,omitempty"`
	Healthy           bool   `json:"healthy"`
}

// TasksHealth is the task list snapshot
type TasksHealth struct {
	Synced    bool `json:"synced"`
	Count     int  `json:"count"`
	Completed int  `json:"completed"`
	Expected  int  `json:"expected"`
	Healthy   bool `json:"healthy"`
}

// State is a copy of the supervisor's health records and logs
type State struct {
	GPS       GPSHealth       `json:"gps"`
	Feed      FeedHealth      `json:"mbta"`
	TripPlan  TripPlanHealth  `json:"tripPlan"`
	Tasks     TasksHealth     `json:"tasks"`
	Errors    []DiagnosticLog `json:"errors"`
	Warnings  []DiagnosticLog `json:"warnings"`
	AutoFixes []AutoFix       `json:"autoFixes"`
	IsRunning bool            `json:"isRunning"`
	LastTick  *time.Time      `json:"lastTick"`
	Ticks     int             `json:"ticks"`
}

// Callbacks are the corrective capabilities injected into the supervisor.
// Each may fail independently; none is called while the supervisor lock is held.
type Callbacks interface {
	RestartGPS(ctx context.Context) error
	RefreshFeed(ctx context.Context) error
	RegenerateTripPlan(ctx context.Context, destinationStopID string) (*planner.TripPlan, error)
	RegenerateTasks(ctx context.Context, plan *planner.TripPlan, preserveCompleted bool) ([]tasks.GameTask, error)
}

// Sink persists diagnostics outside the process, e.g. for telemetry
type Sink interface {
	RecordLog(ctx context.Context, entry DiagnosticLog) error
	RecordAutoFix(ctx context.Context, fix AutoFix) error
}
