package searchcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kailas-cloud/blogdex/internal/domain/search/result"
)

// DefaultSize bounds the in-process cache when no size is configured.
const DefaultSize = 1024

// Memory is an in-process cache evicting by TTL and by capacity.
type Memory struct {
	lru *expirable.LRU[string, []result.Entry]
}

// NewMemory creates an in-process cache holding up to size queries for ttl.
func NewMemory(size int, ttl time.Duration) *Memory {
	if size <= 0 {
		size = DefaultSize
	}
	return &Memory{lru: expirable.NewLRU[string, []result.Entry](size, nil, ttl)}
}

// Get returns a copy of the cached entries.
func (m *Memory) Get(_ context.Context, key string) ([]result.Entry, bool, error) {
	entries, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	return append([]result.Entry{}, entries...), true, nil
}

// Set stores a copy of entries.
func (m *Memory) Set(_ context.Context, key string, entries []result.Entry) error {
	m.lru.Add(key, append([]result.Entry{}, entries...))
	return nil
}

// Len returns the number of live entries.
func (m *Memory) Len() int { return m.lru.Len() }
