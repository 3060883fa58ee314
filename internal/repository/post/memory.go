package post

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/kailas-cloud/blogdex/internal/domain"
	dompost "github.com/kailas-cloud/blogdex/internal/domain/post"
	"github.com/kailas-cloud/blogdex/internal/domain/search/result"
)

// Memory is an in-process post store for local runs and tests. Similarity is
// an exhaustive cosine scan.
type Memory struct {
	mu         sync.RWMutex
	posts      map[int64]dompost.Post
	embeddings map[int64][]float32
	nextID     int64
	now        func() time.Time
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{
		posts:      make(map[int64]dompost.Post),
		embeddings: make(map[int64][]float32),
		now:        time.Now,
	}
}

// Ping always succeeds; the store lives in process.
func (m *Memory) Ping(context.Context) error { return nil }

// Create inserts p and fills its ID and timestamps.
func (m *Memory) Create(_ context.Context, p *dompost.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.slugTaken(p.Slug, 0) {
		return fmt.Errorf("slug %q: %w", p.Slug, domain.ErrAlreadyExists)
	}
	m.nextID++
	ts := m.now()
	p.ID = m.nextID
	p.CreatedAt, p.UpdatedAt, p.ContentUpdatedAt = ts, ts, ts
	m.posts[p.ID] = clonePost(*p)
	return nil
}

// Update overwrites the editable fields of p.
func (m *Memory) Update(_ context.Context, p *dompost.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.posts[p.ID]
	if !ok {
		return fmt.Errorf("post %d: %w", p.ID, domain.ErrPostNotFound)
	}
	if m.slugTaken(p.Slug, p.ID) {
		return fmt.Errorf("slug %q: %w", p.Slug, domain.ErrAlreadyExists)
	}
	ts := m.now()
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = ts
	p.ContentUpdatedAt = old.ContentUpdatedAt
	if p.Content != old.Content {
		p.ContentUpdatedAt = ts
	}
	p.ContentHTML = old.ContentHTML
	m.posts[p.ID] = clonePost(*p)
	return nil
}

// Get returns a post by ID.
func (m *Memory) Get(_ context.Context, id int64) (dompost.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.posts[id]
	if !ok {
		return dompost.Post{}, fmt.Errorf("post %d: %w", id, domain.ErrPostNotFound)
	}
	return clonePost(p), nil
}

// GetMany loads posts by ID. Unknown IDs are absent from the map.
func (m *Memory) GetMany(_ context.Context, ids []int64) (map[int64]dompost.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[int64]dompost.Post, len(ids))
	for _, id := range ids {
		if p, ok := m.posts[id]; ok {
			out[id] = clonePost(p)
		}
	}
	return out, nil
}

// List returns a page of posts, highest sort order and newest first.
func (m *Memory) List(_ context.Context, offset, limit int) ([]dompost.Post, error) {
	m.mu.RLock()
	all := make([]dompost.Post, 0, len(m.posts))
	for _, p := range m.posts {
		all = append(all, clonePost(p))
	}
	m.mu.RUnlock()

	slices.SortFunc(all, func(a, b dompost.Post) int {
		if c := cmp.Compare(b.Order, a.Order); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	offset = max(offset, 0)
	if offset >= len(all) || limit <= 0 {
		return []dompost.Post{}, nil
	}
	return all[offset:min(offset+limit, len(all))], nil
}

// Count returns the number of stored posts.
func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.posts), nil
}

// IDs returns every post ID in ascending order.
func (m *Memory) IDs(_ context.Context) ([]int64, error) {
	m.mu.RLock()
	ids := make([]int64, 0, len(m.posts))
	for id := range m.posts {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	slices.Sort(ids)
	return ids, nil
}

// Sitemap returns the id/slug/updated_at projection of every post.
func (m *Memory) Sitemap(ctx context.Context) ([]dompost.SitemapEntry, error) {
	ids, _ := m.IDs(ctx)

	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]dompost.SitemapEntry, 0, len(ids))
	for _, id := range ids {
		p := m.posts[id]
		entries = append(entries, dompost.SitemapEntry{ID: p.ID, Slug: p.Slug, UpdatedAt: p.UpdatedAt})
	}
	return entries, nil
}

// UpdateEmbedding stores the vector of a post.
func (m *Memory) UpdateEmbedding(_ context.Context, id int64, vec []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[id]; !ok {
		return fmt.Errorf("post %d: %w", id, domain.ErrPostNotFound)
	}
	m.embeddings[id] = slices.Clone(vec)
	return nil
}

// UpdateHTML stores the rendered HTML of a post.
func (m *Memory) UpdateHTML(_ context.Context, id int64, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[id]
	if !ok {
		return fmt.Errorf("post %d: %w", id, domain.ErrPostNotFound)
	}
	p.ContentHTML = html
	m.posts[id] = p
	return nil
}

// Similar ranks every embedded post by cosine distance to vec, keeping
// distances strictly below maxDistance. Ties are ordered by ID.
func (m *Memory) Similar(_ context.Context, vec []float32, maxDistance float64) ([]result.Entry, error) {
	m.mu.RLock()
	entries := []result.Entry{}
	for id, emb := range m.embeddings {
		d, ok := CosineDistance(vec, emb)
		if ok && d < maxDistance {
			entries = append(entries, result.Entry{PostID: id, Distance: d})
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(entries, func(a, b result.Entry) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.PostID, b.PostID)
	})
	return entries, nil
}

// CosineDistance returns 1 - cos(a, b). ok is false when the vectors differ
// in length or either has zero norm.
func CosineDistance(a, b []float32) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb)), true
}

func (m *Memory) slugTaken(slug string, self int64) bool {
	for id, p := range m.posts {
		if id != self && p.Slug == slug {
			return true
		}
	}
	return false
}

func clonePost(p dompost.Post) dompost.Post {
	p.Tags = append([]string{}, p.Tags...)
	return p
}
