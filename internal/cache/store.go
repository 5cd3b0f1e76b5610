// Package cache provides the read-through cache in front of the notification
// store. The cache is wholly derived state: every entry can be recomputed from
// the database, so losing it (or running without Redis at all) only costs
// latency, never correctness.
package cache

import (
	"context"
	"time"
)

// Store is a key/value cache with TTL and pattern-based bulk invalidation.
//
// Availability contract: implementations must degrade gracefully. Get returns
// a miss when the backing store is down, Set and Invalidate become logged
// no-ops. Cache unavailability must never fail a request.
type Store interface {
	// Get returns the cached value and true on a hit.
	Get(ctx context.Context, key string) (string, bool)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key, value string, ttl time.Duration)
	// Invalidate deletes every key matching the glob-style pattern and
	// returns the number of keys removed.
	Invalidate(ctx context.Context, pattern string) int
}
