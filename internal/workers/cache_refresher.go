// Package workers hosts the periodic background jobs: identity cache
// refresh and deadline expiration.
package workers

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"mpsb/internal/bot"
)

// CacheRefresher keeps the in-memory identity cache in sync with the
// database so role checks never read stale approvals for long.
type CacheRefresher struct {
	cache    *bot.IdentityCache
	repo     bot.Repository
	interval time.Duration
	logger   zerolog.Logger
}

func NewCacheRefresher(cache *bot.IdentityCache, repo bot.Repository, interval time.Duration, logger zerolog.Logger) *CacheRefresher {
	return &CacheRefresher{
		cache:    cache,
		repo:     repo,
		interval: interval,
		logger:   logger.With().Str("component", "cache_refresher").Logger(),
	}
}

// Run blocks until ctx is cancelled, refreshing the cache every interval.
// A failed tick is logged and retried on the next one.
func (r *CacheRefresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info().Dur("interval", r.interval).Msg("cache refresher started")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("cache refresher stopped")
			return
		case <-ticker.C:
			if err := r.cache.Refresh(ctx, r.repo); err != nil {
				r.logger.Error().Err(err).Msg("cache refresh failed")
			}
		}
	}
}
