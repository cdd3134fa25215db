// Package cache defines the TTL key/value store the aggregation layer uses
// for cache-aside reads. The store is treated as a black box: eviction and
// freshness beyond the per-key TTL are its own concern, and callers degrade
// any failure to a cache miss rather than surfacing it.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired
var ErrMiss = errors.New("cache miss")

// Store is a TTL key/value store
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}
