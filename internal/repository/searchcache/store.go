// Package searchcache keeps ranked search results per normalized query.
package searchcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/blogdex/internal/db"
	"github.com/kailas-cloud/blogdex/internal/domain/search/result"
)

const keyNamespace = "search:"

// Key derives the cache key of a normalized query.
func Key(normalizedQuery string) string {
	h := sha256.Sum256([]byte(normalizedQuery))
	return keyNamespace + hex.EncodeToString(h[:])
}

// store is the consumer interface for the result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Store caches ranked entries as JSON in the KV store. Entries expire by TTL
// and are never updated in place.
type Store struct {
	store     store
	keyPrefix string
	ttl       time.Duration
}

// New creates a store-backed cache. keyPrefix namespaces keys in a shared store.
func New(s store, keyPrefix string, ttl time.Duration) *Store {
	return &Store{store: s, keyPrefix: keyPrefix, ttl: ttl}
}

// Get returns cached entries. A missing key is a miss, not an error.
func (s *Store) Get(ctx context.Context, key string) ([]result.Entry, bool, error) {
	data, err := s.store.Get(ctx, s.keyPrefix+key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("searchcache GET %s: %w", key, err)
	}

	var entries []result.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false, fmt.Errorf("searchcache decode %s: %w", key, err)
	}
	if entries == nil {
		entries = []result.Entry{}
	}
	return entries, true, nil
}

// Set stores entries under key with the configured TTL.
func (s *Store) Set(ctx context.Context, key string, entries []result.Entry) error {
	if entries == nil {
		entries = []result.Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("searchcache encode %s: %w", key, err)
	}
	if err := s.store.SetWithTTL(ctx, s.keyPrefix+key, data, s.ttl); err != nil {
		return fmt.Errorf("searchcache SET %s: %w", key, err)
	}
	return nil
}
