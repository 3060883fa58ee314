package blogdex

import (
	"context"
	"fmt"
	"time"
)

// PostService creates, updates and reads posts.
type PostService struct {
	svc postUseCase
	obs *observer
}

// Create derives missing fields from the content and stores the post.
// Its embedding and HTML are produced in the background.
func (s *PostService) Create(ctx context.Context, in PostInput) (_ Post, err error) {
	start := time.Now()
	defer func() { s.obs.observe("post.create", start, err) }()

	p, err := s.svc.Create(ctx, toInternalInput(in))
	if err != nil {
		return Post{}, fmt.Errorf("create post: %w", err)
	}
	return fromInternalPost(p), nil
}

// Update replaces the post with id.
func (s *PostService) Update(ctx context.Context, id int64, in PostInput) (_ Post, err error) {
	start := time.Now()
	defer func() { s.obs.observe("post.update", start, err) }()

	p, err := s.svc.Update(ctx, id, toInternalInput(in))
	if err != nil {
		return Post{}, fmt.Errorf("update post: %w", err)
	}
	return fromInternalPost(p), nil
}

// Get retrieves a post by ID.
func (s *PostService) Get(ctx context.Context, id int64) (_ Post, err error) {
	start := time.Now()
	defer func() { s.obs.observe("post.get", start, err) }()

	p, err := s.svc.Get(ctx, id)
	if err != nil {
		return Post{}, fmt.Errorf("get post: %w", err)
	}
	return fromInternalPost(p), nil
}

// List returns one page of posts ordered by Order, highest first.
func (s *PostService) List(ctx context.Context, page, size int) (_ PostPage, err error) {
	start := time.Now()
	defer func() { s.obs.observe("post.list", start, err) }()

	pg, err := s.svc.List(ctx, page, size)
	if err != nil {
		return PostPage{}, fmt.Errorf("list posts: %w", err)
	}
	return fromInternalPage(pg), nil
}

// IDs returns every post ID in ascending order.
func (s *PostService) IDs(ctx context.Context) (_ []int64, err error) {
	start := time.Now()
	defer func() { s.obs.observe("post.ids", start, err) }()

	ids, err := s.svc.IDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("post ids: %w", err)
	}
	return ids, nil
}

// Sitemap returns the sitemap projection of every post.
func (s *PostService) Sitemap(ctx context.Context) (_ []SitemapEntry, err error) {
	start := time.Now()
	defer func() { s.obs.observe("post.sitemap", start, err) }()

	entries, err := s.svc.Sitemap(ctx)
	if err != nil {
		return nil, fmt.Errorf("sitemap: %w", err)
	}
	return fromInternalSitemap(entries), nil
}

// Reindex synchronously recomputes every embedding, and the HTML too when
// render is set. Per-post failures are counted, not returned.
func (s *PostService) Reindex(ctx context.Context, render bool) (_ ReindexReport, err error) {
	start := time.Now()
	defer func() { s.obs.observe("post.reindex", start, err) }()

	r, err := s.svc.Reindex(ctx, render)
	if err != nil {
		return ReindexReport{}, fmt.Errorf("reindex: %w", err)
	}
	return ReindexReport{Total: r.Total, Embedded: r.Embedded, Rendered: r.Rendered, Failed: r.Failed}, nil
}
