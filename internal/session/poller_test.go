package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/realtime"
	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/supervisor"
)

func TestPollFeedSkipsWithoutPlan(t *testing.T) {
	feed := &fakeFeed{snap: realtime.Snapshot{FetchedAt: now}}
	s, _ := newTestSession(t, feed)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := s.PollFeed(ctx, 5*time.Millisecond); err != nil {
		t.Fatalf("PollFeed() error: %v", err)
	}
	if len(feed.routes) != 0 {
		t.Errorf("feed fetched %d times without a plan", len(feed.routes))
	}
}

func TestPollFeedRefreshesAndLogsFailures(t *testing.T) {
	feed := &fakeFeed{err: errors.New("feed unreachable")}
	s, sup := newTestSession(t, feed)
	s.UpdatePosition(parkLat, parkLng, now)
	if _, _, err := s.SetDestination(context.Background(), "place-harsq"); err != nil {
		t.Fatal(err)
	}
	events, release := sup.Subscribe()
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	s.PollFeed(ctx, 10*time.Millisecond)

	feed.mu.Lock()
	fetches := len(feed.routes)
	feed.mu.Unlock()
	if fetches < 2 {
		t.Errorf("fetches = %d, want at least 2", fetches)
	}

	st := sup.State()
	if len(st.Warnings) == 0 || st.Warnings[0].Category != supervisor.CategoryFeed {
		t.Errorf("warnings = %+v", st.Warnings)
	}
	select {
	case ev := <-events:
		if ev.Type != supervisor.EventLog {
			t.Errorf("event = %+v", ev)
		}
	default:
		t.Error("expected a log event")
	}
}
