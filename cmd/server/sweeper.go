package main

import (
	"context"
	"time"

	"github.com/fundlens/fundlens/internal/cache"
	"github.com/fundlens/fundlens/internal/metrics"
	"github.com/fundlens/fundlens/internal/observability"
	"github.com/fundlens/fundlens/internal/session"
)

// runSweeper periodically purges expired cache entries and sessions.
// Expiry is already enforced lazily on every read; the sweeper only keeps
// storage from accumulating dead rows.
func runSweeper(ctx context.Context, interval time.Duration, cacheStore cache.Store, sessions session.Registry, logger *observability.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			entries, err := cacheStore.SweepExpired(ctx)
			if err != nil {
				logger.Warn("cache sweep failed", "error", err)
			}

			swept, err := sessions.SweepExpired(ctx)
			if err != nil {
				logger.Warn("session sweep failed", "error", err)
			}
			metrics.SessionsSwept.Add(float64(swept))

			if active, err := sessions.ActiveCount(ctx); err == nil {
				metrics.ActiveSessions.Set(float64(active))
			}

			if entries > 0 || swept > 0 {
				logger.Info("sweep complete",
					"cache_entries_removed", entries,
					"sessions_removed", swept)
			}
		}
	}
}
