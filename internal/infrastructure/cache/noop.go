package cache

import (
	"context"
	"time"
)

// noopCache is used when no cache backend is configured or the backend is
// unreachable at startup. Every read misses and every write succeeds, so
// callers transparently fall back to direct store reads.
type noopCache struct{}

// NewNoopCache returns a cache that never stores anything
func NewNoopCache() Cache {
	return noopCache{}
}

func (noopCache) Get(ctx context.Context, key string) (string, error) {
	return "", ErrCacheKeyNotFound{Key: key}
}

func (noopCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (noopCache) Delete(ctx context.Context, key string) error { return nil }

func (noopCache) Exists(ctx context.Context, key string) (bool, error) { return false, nil }

func (noopCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	return ErrCacheKeyNotFound{Key: key}
}

func (noopCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (noopCache) Close() error { return nil }
