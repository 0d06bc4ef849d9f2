// Package cache stores parsed records between runs.
//
// A [Cache] is a byte store with per-entry TTL. Three backends exist:
//   - [FileCache]: one JSON file per entry below a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for several machines reading
//     the same data sets
//   - [NullCache]: stores nothing
//
// Keys come from a [Keyer]. The default keyer hashes a file's path, size and
// modification time, so an edited file misses the cache without explicit
// invalidation.
package cache

import (
	"context"
	"time"
)

// Cache is a key/value byte store.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}
