package db

import (
	"context"
	"time"
)

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Cache holds opaque values that expire on their own.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Counter keeps integer counters scoped to a time window.
type Counter interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// IncrWithTTL adds delta to key and returns the new total. The ttl only
	// applies when the key has no expiry yet, so the window starts at the
	// first increment.
	IncrWithTTL(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
}

// Store is everything the Redis backend offers to the application.
type Store interface {
	Pinger
	Cache
	Counter
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}
