// Package budget persists embedding token counters in the KV store.
package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/blogdex/internal/db"
)

// Store keeps token counters for the embedding budget tracker.
type Store struct {
	counters db.Counter
}

// New creates a budget store.
func New(c db.Counter) *Store {
	return &Store{counters: c}
}

// IncrBy adds val to key. The period ttl is set by the first write only.
func (s *Store) IncrBy(ctx context.Context, key string, val int64, ttl time.Duration) error {
	if _, err := s.counters.IncrWithTTL(ctx, key, val, ttl); err != nil {
		return fmt.Errorf("budget add %s: %w", key, err)
	}
	return nil
}

// Get returns the counter value, 0 when the key does not exist.
func (s *Store) Get(ctx context.Context, key string) (int64, error) {
	data, err := s.counters.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("budget read %s: %w", key, err)
	}

	val, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("budget %s: not a counter: %w", key, err)
	}
	return val, nil
}
