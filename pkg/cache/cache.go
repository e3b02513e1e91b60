// Package cache provides content-addressed caching for generated networks,
// route answers and rendered artifacts.
//
// Backends share a single Cache interface so callers can swap the file-based
// CLI cache for Redis (server deployments) or NullCache (tests, --no-cache)
// without touching call sites. Keys are produced by a Keyer so every entry
// point derives them the same way; see DefaultKeyer.
package cache

import (
	"context"
	"time"
)

// TTLs per entry class. Generation and routing are deterministic for a given
// parameter set, so these guard against stale schema versions rather than
// stale data.
const (
	// TTLNetwork is how long generated networks stay cached.
	TTLNetwork = 7 * 24 * time.Hour

	// TTLRoute is how long route answers stay cached.
	TTLRoute = 24 * time.Hour

	// TTLArtifact is how long rendered artifacts stay cached.
	TTLArtifact = 24 * time.Hour
)

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
