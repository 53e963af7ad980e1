package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache is a byte-value cache with per-entry TTLs. Used by the
// tenant resolver to avoid a database round-trip per request.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
