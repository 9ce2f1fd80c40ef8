package session

import (
	"context"
	"time"

	"github.com/Joshua-G2/goat-hacks-2026-mbta-sub000/internal/supervisor"
)

// PollFeed refreshes live data once, then every interval while a trip is
// planned, until ctx is canceled. Failures go to the supervisor log; the
// supervisor's own staleness check decides on corrective refreshes.
func (s *Session) PollFeed(ctx context.Context, interval time.Duration) error {
	s.pollOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.pollOnce(ctx)
		case <-ctx.Done():
			s.logger.Info("feed polling stopped")
			return nil
		}
	}
}

func (s *Session) pollOnce(ctx context.Context) {
	s.mu.Lock()
	active := s.plan != nil
	s.mu.Unlock()
	if !active || s.deps.Feed == nil {
		return
	}

	if err := s.RefreshFeed(ctx); err != nil && ctx.Err() == nil {
		s.deps.Supervisor.Log(ctx, supervisor.LevelWarning, supervisor.CategoryFeed, err.Error())
	}
}
