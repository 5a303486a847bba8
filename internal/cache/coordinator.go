package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gatefeed/gatefeed/internal/logger"
)

// Coordinator wraps a keyed fetch with result caching and single-flight
// de-duplication: N concurrent requests for the same key trigger exactly one
// underlying fetch, and all N observe its result. Failed computations are
// never cached, so a later call retries.
type Coordinator struct {
	store Store
	ttl   time.Duration
	group singleflight.Group
}

// NewCoordinator creates a coordinator over the given store. ttl applies to
// successfully computed values.
func NewCoordinator(store Store, ttl time.Duration) *Coordinator {
	return &Coordinator{store: store, ttl: ttl}
}

// GetOrFetch returns the cached value for key, or runs compute exactly once
// across all concurrent callers and caches its result.
func (c *Coordinator) GetOrFetch(ctx context.Context, key string, compute func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if val, ok, err := c.store.Get(ctx, key); err == nil && ok {
		logger.Debug("cache hit", "key", key)
		return val, nil
	} else if err != nil {
		// A broken store degrades to fetch-through, not failure.
		logger.Warn("cache get failed", "key", key, "error", err)
	}

	val, err, shared := c.group.Do(key, func() (any, error) {
		// Double-check: another flight may have filled the store between
		// our miss and acquiring the flight.
		if cached, ok, err := c.store.Get(ctx, key); err == nil && ok {
			return cached, nil
		}

		computed, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		if err := c.store.Set(ctx, key, computed, c.ttl); err != nil {
			logger.Warn("cache set failed", "key", key, "error", err)
		}
		return computed, nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("cache fill", "key", key, "shared", shared)
	return val.([]byte), nil
}
