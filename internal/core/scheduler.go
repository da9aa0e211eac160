package core

// scheduler.go refreshes the snapshot in the background.
//
// The scheduler is optional: the dashboard's reload trigger is the primary
// way data changes. When enabled it reloads every interval until the context
// is cancelled. A failed dataset only shows up in the snapshot's errors; the
// scheduler itself never stops because of one.

import (
	"context"
	"log/slog"
	"time"
)

// StartRefreshScheduler reloads the store every interval until ctx is done.
// It does not reload immediately; the caller owns the initial load.
// A non-positive interval returns at once.
func (s *Store) StartRefreshScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	slog.Info("refresh scheduler started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			slog.Debug("scheduled reload started")
			s.Reload(ctx)
		}
	}
}
