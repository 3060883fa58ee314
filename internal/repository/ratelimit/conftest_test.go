package ratelimit

import (
	"context"
	"sync"
	"time"
)

// fakeStore is an in-process counter whose windows follow a manual clock.
type fakeStore struct {
	mu        sync.Mutex
	counts    map[string]int64
	expiresAt map[string]time.Time
	now       time.Time

	err  error
	ttls []time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		counts:    map[string]int64{},
		expiresAt: map[string]time.Time{},
		now:       time.Unix(1_700_000_000, 0),
	}
}

func (f *fakeStore) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	for k, exp := range f.expiresAt {
		if !f.now.Before(exp) {
			delete(f.counts, k)
			delete(f.expiresAt, k)
		}
	}
}

func (f *fakeStore) IncrWithTTL(_ context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.counts[key] += delta
	if _, armed := f.expiresAt[key]; !armed {
		f.expiresAt[key] = f.now.Add(ttl)
	}
	f.ttls = append(f.ttls, ttl)
	return f.counts[key], nil
}
