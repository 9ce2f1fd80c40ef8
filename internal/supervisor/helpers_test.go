package supervisor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/planner"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/tasks"
)

var t0 = time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: t0} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeCallbacks records calls in order
type fakeCallbacks struct {
	mu    sync.Mutex
	calls []string

	restartErr   error
	refreshErr   error
	planErr      error
	panicOnTasks bool
	plan         *planner.TripPlan
	tasks        []tasks.GameTask
	seenPlan     *planner.TripPlan
	preserve     bool
}

func (f *fakeCallbacks) note(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeCallbacks) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeCallbacks) count(name string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeCallbacks) RestartGPS(context.Context) error {
	f.note("gps")
	return f.restartErr
}

func (f *fakeCallbacks) RefreshFeed(context.Context) error {
	f.note("feed")
	return f.refreshErr
}

func (f *fakeCallbacks) RegenerateTripPlan(_ context.Context, dest string) (*planner.TripPlan, error) {
	f.note("plan")
	if f.planErr != nil {
		return nil, f.planErr
	}
	return f.plan, nil
}

func (f *fakeCallbacks) RegenerateTasks(_ context.Context, plan *planner.TripPlan, preserve bool) ([]tasks.GameTask, error) {
	f.note("tasks")
	if f.panicOnTasks {
		panic("task generator exploded")
	}
	f.mu.Lock()
	f.seenPlan = plan
	f.preserve = preserve
	f.mu.Unlock()
	return f.tasks, nil
}

var errBoom = errors.New("boom")

func validPlan1() *planner.TripPlan {
	return &planner.TripPlan{Legs: []planner.TripLeg{{
		RouteID: "Red", RouteName: "Red Line",
		FromStopID: "place-pktrm", FromStopName: "Park Street",
		ToStopID: "place-harsq", ToStopName: "Harvard",
	}}}
}

func someTasks() []tasks.GameTask {
	return []tasks.GameTask{
		{ID: "walk-to-stop-0-place-pktrm", Type: tasks.TaskWalkToStop},
		{ID: "board-0-Red-place-pktrm", Type: tasks.TaskBoard},
		{ID: "ride-0-place-harsq", Type: tasks.TaskRide},
	}
}

// healthySupervisor has a fresh GPS fix, fresh feed, a valid plan and tasks
func healthySupervisor(c *clock) *Supervisor {
	s := New(WithClock(c.Now))
	s.SetGPSActive(true)
	s.ReportGPS(42.3564, -71.0624, c.Now())
	s.ReportFeedUpdate(c.Now())
	s.UpdateTripPlan(validPlan1(), "place-harsq")
	s.UpdateTasks(someTasks())
	return s
}

// withCallbacks installs callbacks without starting the loop
func withCallbacks(s *Supervisor, cb Callbacks) {
	s.mu.Lock()
	s.callbacks = cb
	s.mu.Unlock()
}
