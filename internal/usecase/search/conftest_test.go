package search

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/blogdex/internal/domain"
	"github.com/kailas-cloud/blogdex/internal/domain/post"
	"github.com/kailas-cloud/blogdex/internal/domain/search/request"
	"github.com/kailas-cloud/blogdex/internal/domain/search/result"
	"github.com/kailas-cloud/blogdex/internal/repository/searchcache"
)

type mockRepo struct {
	mu           sync.Mutex
	entries      []result.Entry
	posts        map[int64]post.Post
	similarErr   error
	getManyErr   error
	similarCalls int
	getManyCalls int
	lastMaxDist  float64
	lastIDs      []int64
}

func newMockRepo(entries []result.Entry) *mockRepo {
	posts := make(map[int64]post.Post, len(entries))
	for _, e := range entries {
		posts[e.PostID] = post.Post{ID: e.PostID, Title: "post"}
	}
	return &mockRepo{entries: entries, posts: posts}
}

func (m *mockRepo) Similar(_ context.Context, _ []float32, maxDistance float64) ([]result.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.similarCalls++
	m.lastMaxDist = maxDistance
	if m.similarErr != nil {
		return nil, m.similarErr
	}
	return append([]result.Entry{}, m.entries...), nil
}

func (m *mockRepo) GetMany(_ context.Context, ids []int64) (map[int64]post.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getManyCalls++
	m.lastIDs = ids
	if m.getManyErr != nil {
		return nil, m.getManyErr
	}
	out := make(map[int64]post.Post)
	for _, id := range ids {
		if p, ok := m.posts[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type mockCache struct {
	mu      sync.Mutex
	data    map[string][]result.Entry
	getErr  error
	setErr  error
	setKeys []string
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]result.Entry{}}
}

func (m *mockCache) Get(_ context.Context, key string) ([]result.Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	e, ok := m.data[key]
	return e, ok, nil
}

func (m *mockCache) Set(_ context.Context, key string, entries []result.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setKeys = append(m.setKeys, key)
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = entries
	return nil
}

type mockLimiter struct {
	allowed bool
	err     error
	calls   int
}

func (m *mockLimiter) Allow(_ context.Context, _ string) (bool, error) {
	m.calls++
	return m.allowed, m.err
}

type mockEmbedder struct {
	vec     []float32
	err     error
	delay   time.Duration
	block   bool
	calls   atomic.Int32
	release chan struct{}
}

func (m *mockEmbedder) Embed(ctx context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls.Add(1)
	if m.release != nil {
		<-m.release
	}
	if m.block {
		<-ctx.Done()
		return domain.EmbeddingResult{}, ctx.Err()
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

type fixture struct {
	svc     *Service
	repo    *mockRepo
	cache   *mockCache
	limiter *mockLimiter
	embed   *mockEmbedder
}

func newFixture(t *testing.T, entries []result.Entry) *fixture {
	t.Helper()
	f := &fixture{
		repo:    newMockRepo(entries),
		cache:   newMockCache(),
		limiter: &mockLimiter{allowed: true},
		embed:   &mockEmbedder{vec: []float32{0.1, 0.2}},
	}
	f.svc = New(f.repo, f.cache, f.limiter, f.embed, Config{
		ConfidenceThreshold: 0.7,
		EmbeddingTimeout:    time.Second,
		Limits:              request.DefaultLimits(),
	}, zap.NewNop())
	return f
}

func rankedEntries(n int) []result.Entry {
	entries := make([]result.Entry, n)
	for i := range entries {
		entries[i] = result.Entry{PostID: int64(i + 1), Distance: float64(i) * 0.1}
	}
	return entries
}

func keyFor(q string) string {
	r, _ := request.New(q, 1, 1, "", request.DefaultLimits())
	return searchcache.Key(r.NormalizedQuery())
}
