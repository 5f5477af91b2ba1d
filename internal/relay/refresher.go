package relay

import (
	"context"
	"time"
)

// StartRefresher rewarms the cache immediately and then every interval,
// blocking until ctx is cancelled. A failed refresh is logged and leaves the
// previous snapshot to expire on its own.
func (r *Relay) StartRefresher(ctx context.Context, interval time.Duration) {
	r.logger.Info("relay cache refresher started", "interval", interval)

	r.runRefresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("relay cache refresher stopped")
			return
		case <-ticker.C:
			r.runRefresh(ctx)
		}
	}
}

// runRefresh performs one refresh cycle.
func (r *Relay) runRefresh(ctx context.Context) {
	start := time.Now()
	n, err := r.Refresh(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("relay cache refresh failed", "error", err)
		}
		return
	}
	r.logger.Debug("relay cache refreshed",
		"records", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
