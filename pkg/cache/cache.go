// Package cache provides byte-oriented caches for index listings.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: JSON envelopes under a directory (CLI default)
//   - [RedisCache]: a shared Redis instance (serve mode, CI runners)
//   - [NullCache]: caching disabled
//
// Keys are built with [Key] so different data sources never collide.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache stores opaque byte values with an optional time-to-live.
//
// Get reports a miss as (nil, false, nil); expired entries are misses.
// A ttl of 0 passed to Set means the entry never expires.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key joins a namespace and key parts into a cache key,
// e.g. Key("simple", "https://pypi.org/simple", "requests").
func Key(namespace string, parts ...string) string {
	return namespace + ":" + Hash([]byte(strings.Join(parts, "\x00")))
}
