// Package cache provides optional caching of index responses.
//
// Lookups are not cached by default; the null backend keeps every run
// fresh. The file backend stores entries under a directory with a
// per-entry TTL for users who check large manifests repeatedly.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys with a TTL.
// Implementations must treat expired entries as misses.
type Cache interface {
	// Get retrieves a value. The second return is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of 0 means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}
