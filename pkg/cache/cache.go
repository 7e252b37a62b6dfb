// Package cache stores laid-out scenes and rendered artifacts.
//
// Laying out a large lineage graph is the expensive step of every render, so
// the pipeline keys scenes by the content hash of the dataset plus the layout
// options, and artifacts by the scene hash plus the render options. Three
// backends implement [Cache]:
//
//   - [FileCache]: one JSON file per entry under the user cache directory
//   - [RedisCache]: shared cache for server deployments
//   - [NullCache]: disables caching (--no-cache)
//
// Keys are built by a [Keyer]; [ScopedKeyer] prefixes them so several
// servers can share one Redis without clashing.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored value. A missing or expired entry is a miss
	// (ok == false), not an error.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// DefaultTTL is how long scenes and artifacts stay cached unless configured.
const DefaultTTL = 7 * 24 * time.Hour

// Clearer is implemented by caches that can drop all their entries.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}
