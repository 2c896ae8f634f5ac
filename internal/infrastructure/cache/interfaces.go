package cache

import (
	"context"
	"time"
)

// Cache is the key/value abstraction injected into services. Implementations
// must tolerate the backing store being unavailable: callers degrade to
// direct database reads and only lose progress-polling convenience.
type Cache interface {
	// Get retrieves a value by key
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value with optional TTL
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes a key
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists
	Exists(ctx context.Context, key string) (bool, error)

	// GetJSON retrieves and unmarshals JSON data
	GetJSON(ctx context.Context, key string, dest interface{}) error

	// SetJSON marshals and stores JSON data
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Close closes the cache connection
	Close() error
}

// Key prefixes for consistent cache key naming
const (
	FactorPrefix    = "ccb:factor:"
	GridPrefix      = "ccb:grid:"
	PrecursorPrefix = "ccb:precursor:"
	ProgressPrefix  = "ccb:batch:"
)

// Common TTL values. Factor staleness is acceptable (factors change rarely)
// so no locking beyond atomic writes is needed.
const (
	FactorTTL   = 1 * time.Hour
	ProgressTTL = 30 * time.Minute
)

// ErrCacheKeyNotFound is returned when a cache key doesn't exist
type ErrCacheKeyNotFound struct {
	Key string
}

func (e ErrCacheKeyNotFound) Error() string {
	return "cache key not found: " + e.Key
}
