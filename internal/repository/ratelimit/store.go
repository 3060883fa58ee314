// Package ratelimit counts search requests per client in fixed windows.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

type counter interface {
	IncrWithTTL(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
}

// Config holds the limiter quota.
type Config struct {
	// KeyPrefix namespaces counters in the shared store, e.g. "blogdex:ratelimit:".
	KeyPrefix   string
	Prefix      string
	MaxRequests int
	Window      time.Duration
}

// Store is a fixed-window limiter backed by a shared counter.
type Store struct {
	counter counter
	cfg     Config
}

// New creates a counter-backed limiter.
func New(c counter, cfg Config) *Store {
	return &Store{counter: c, cfg: cfg}
}

// Allow counts one request from identity and reports whether it fits the
// quota. The window is armed by the first increment only, so it expires a
// fixed time after the first request.
func (s *Store) Allow(ctx context.Context, identity string) (bool, error) {
	key := s.cfg.KeyPrefix + Key(s.cfg.Prefix, identity)

	n, err := s.counter.IncrWithTTL(ctx, key, 1, s.cfg.Window)
	if err != nil {
		return false, fmt.Errorf("ratelimit %s: %w", key, err)
	}

	// n counts this request, so the pre-increment count is n-1.
	return n-1 < int64(s.cfg.MaxRequests), nil
}

// Key scopes a counter to prefix:identity.
func Key(prefix, identity string) string {
	return prefix + ":" + identity
}
