package app

import (
	"context"
	"time"

	"github.com/felixgeelhaar/nextup/pkg/observability"
)

// DefaultCleanupInterval is used when the configuration leaves the cache
// cleanup interval unset.
const DefaultCleanupInterval = 10 * time.Minute

// RunMaintenance drops expired cache entries and idle sessions on every
// tick of the configured cleanup interval until ctx ends.
func (c *Container) RunMaintenance(ctx context.Context) {
	interval := DefaultCleanupInterval
	if c.Config != nil && c.Config.CacheCleanupInterval > 0 {
		interval = c.Config.CacheCleanupInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger := observability.LogOperation(c.Logger, "cache.cleanup")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := observability.TimeOperationResult(ctx, logger, c.Metrics, "cache.cleanup",
				func() (int, error) { return c.Engine.CleanupCache(ctx) })
			if err != nil {
				continue
			}
			if removed > 0 {
				logger.InfoContext(ctx, "expired cache entries removed", "removed", removed)
			}
		}
	}
}
