package cache

import (
	"context"
	"time"
)

// Store represents the shared key-value cache interface used across the application.
// Increment must be atomic at the store level; a missing key is materialised at 1.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Increment(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, keys ...string) error
}
