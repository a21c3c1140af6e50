// Package cache stores rendered diagram artifacts.
//
// Rendering a diagram starts the Graphviz WebAssembly runtime and, for PDF
// and PNG, an external converter. Artifacts are keyed by the hash of the DOT
// source and the output format, so an unchanged rig is served from the cache.
//
// [FileCache] keeps entries under a directory for CLI use; [NullCache]
// disables caching.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiration.
type Cache interface {
	// Get returns the data stored under key. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}
