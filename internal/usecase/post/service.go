// Package post implements the post save pipeline and the read side of the
// blog: listings, detail, ids and sitemap.
package post

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/blogdex/internal/domain"
	"github.com/kailas-cloud/blogdex/internal/domain/metadata"
	dompost "github.com/kailas-cloud/blogdex/internal/domain/post"
	"github.com/kailas-cloud/blogdex/internal/domain/search/request"
	"github.com/kailas-cloud/blogdex/internal/domain/slug"
	"github.com/kailas-cloud/blogdex/internal/domain/text"
	"github.com/kailas-cloud/blogdex/internal/worker"
)

// Job names.
const (
	JobEmbed  = "embed_post"
	JobRender = "render_post"
)

// Input is an author-submitted post. Empty fields are derived from the
// content where possible.
type Input struct {
	Title           string
	Slug            string
	Content         string
	CoverImage      string
	HeaderImage     string
	MetaDescription string
	Keywords        string
	Category        string
	Tags            []string
	Status          dompost.Status
	Order           int
}

// ListPage is one page of the post listing.
type ListPage struct {
	Posts []dompost.Post
	Total int
	Page  int
	Size  int
}

// ReindexReport summarizes a reindex run.
type ReindexReport struct {
	Total    int
	Embedded int
	Rendered int
	Failed   int
}

// Service handles post writes and reads.
type Service struct {
	repo          Repository
	meta          MetadataExtractor
	embed         Embedder
	renderer      Renderer
	queue         Queue
	slugMaxLength int
	maxPageSize   int
	logger        *zap.Logger
}

// New creates a post service. renderer may be nil to skip HTML rendering.
func New(
	repo Repository, meta MetadataExtractor, embed Embedder,
	renderer Renderer, queue Queue, logger *zap.Logger,
) *Service {
	return &Service{
		repo: repo, meta: meta, embed: embed, renderer: renderer, queue: queue,
		slugMaxLength: slug.DefaultMaxLength,
		maxPageSize:   request.DefaultMaxPageSize,
		logger:        logger,
	}
}

// WithSlugMaxLength configures the slug length bound.
func (s *Service) WithSlugMaxLength(n int) *Service {
	if n > 0 {
		s.slugMaxLength = n
	}
	return s
}

// WithMaxPageSize configures the largest accepted listing page.
func (s *Service) WithMaxPageSize(n int) *Service {
	if n > 0 {
		s.maxPageSize = n
	}
	return s
}

// Create derives missing fields, stores the post and schedules its
// embedding and rendering.
func (s *Service) Create(ctx context.Context, in Input) (dompost.Post, error) {
	p, err := s.prepare(in)
	if err != nil {
		return dompost.Post{}, err
	}
	if err := s.repo.Create(ctx, &p); err != nil {
		return dompost.Post{}, fmt.Errorf("create post: %w", err)
	}

	s.schedule(p.ID, true, true)
	return p, nil
}

// Update replaces the post with id. Background jobs run only for what changed.
func (s *Service) Update(ctx context.Context, id int64, in Input) (dompost.Post, error) {
	old, err := s.repo.Get(ctx, id)
	if err != nil {
		return dompost.Post{}, fmt.Errorf("get post: %w", err)
	}

	p, err := s.prepare(in)
	if err != nil {
		return dompost.Post{}, err
	}
	p.ID = id
	if err := s.repo.Update(ctx, &p); err != nil {
		return dompost.Post{}, fmt.Errorf("update post: %w", err)
	}

	contentChanged := old.Content != p.Content
	s.schedule(id, contentChanged || old.Title != p.Title, contentChanged || old.ContentHTML == "")
	return p, nil
}

// prepare validates input and fills empty fields from the content metadata.
func (s *Service) prepare(in Input) (dompost.Post, error) {
	if strings.TrimSpace(in.Content) == "" {
		return dompost.Post{}, fmt.Errorf("%w: content is required", domain.ErrInvalidPost)
	}
	if in.Status == "" {
		in.Status = dompost.StatusDraft
	}
	if !in.Status.IsValid() {
		return dompost.Post{}, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidPost, in.Status)
	}

	rec := s.meta.Extract(in.Content)
	p := dompost.Post{
		Title:           firstNonEmpty(in.Title, deref(rec.Title)),
		Content:         in.Content,
		CoverImage:      firstNonEmpty(in.CoverImage, deref(rec.CoverImage)),
		HeaderImage:     firstNonEmpty(in.HeaderImage, deref(rec.HeaderImage)),
		MetaDescription: firstNonEmpty(in.MetaDescription, rec.Description),
		Keywords:        firstNonEmpty(in.Keywords, rec.Keywords),
		Category:        firstNonEmpty(in.Category, deref(rec.Category)),
		Tags:            in.Tags,
		Status:          in.Status,
		Order:           in.Order,
	}
	if len(p.Tags) == 0 {
		p.Tags = rec.Tags
	}

	p.Slug = s.resolveSlug(firstNonEmpty(in.Slug, deref(rec.Slug)), p.Title)
	if dompost.IsReservedSlug(p.Slug) {
		return dompost.Post{}, fmt.Errorf("%q: %w", p.Slug, domain.ErrReservedSlug)
	}
	return p, nil
}

// resolveSlug keeps a valid explicit slug, slugifies an invalid one and
// falls back to the title.
func (s *Service) resolveSlug(explicit, title string) string {
	explicit = strings.TrimSpace(explicit)
	switch {
	case explicit == "":
		return slug.Slugify(title, s.slugMaxLength)
	case slug.Valid(explicit) && len(explicit) <= s.slugMaxLength:
		return explicit
	default:
		return slug.Slugify(explicit, s.slugMaxLength)
	}
}

func (s *Service) schedule(id int64, embed, render bool) {
	if embed {
		s.queue.Enqueue(worker.Job{Name: JobEmbed, Run: func(ctx context.Context) error {
			return s.EmbedPost(ctx, id)
		}})
	}
	if render && s.renderer != nil {
		s.queue.Enqueue(worker.Job{Name: JobRender, Run: func(ctx context.Context) error {
			return s.RenderPost(ctx, id)
		}})
	}
}

// EmbedPost computes and stores the embedding of a post.
func (s *Service) EmbedPost(ctx context.Context, id int64) error {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get post: %w", err)
	}
	res, err := s.embed.Embed(ctx, p.EmbeddingText(text.Normalize(p.Content)))
	if err != nil {
		return fmt.Errorf("embed post %d: %w", id, err)
	}
	if err := s.repo.UpdateEmbedding(ctx, id, res.Embedding); err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}
	return nil
}

// RenderPost renders a post's Markdown and stores the HTML.
func (s *Service) RenderPost(ctx context.Context, id int64) error {
	if s.renderer == nil {
		return nil
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get post: %w", err)
	}
	html, err := s.renderer.Render(ctx, p.Content)
	if err != nil {
		return fmt.Errorf("render post %d: %w", id, err)
	}
	if err := s.repo.UpdateHTML(ctx, id, html); err != nil {
		return fmt.Errorf("store html: %w", err)
	}
	return nil
}

// Get returns a post by ID.
func (s *Service) Get(ctx context.Context, id int64) (dompost.Post, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return dompost.Post{}, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

// List returns a page of posts. An empty store is ErrEmpty; a page past the
// end is ErrOutOfRange.
func (s *Service) List(ctx context.Context, page, size int) (ListPage, error) {
	if page < 1 || size < 1 || size > s.maxPageSize {
		return ListPage{}, fmt.Errorf("%w: page must be >= 1 and size between 1 and %d",
			domain.ErrInvalidPagination, s.maxPageSize)
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return ListPage{}, fmt.Errorf("count posts: %w", err)
	}
	if total == 0 {
		return ListPage{}, domain.ErrEmpty
	}
	offset := (page - 1) * size
	if offset >= total {
		return ListPage{}, fmt.Errorf("offset %d of %d: %w", offset, total, domain.ErrOutOfRange)
	}

	posts, err := s.repo.List(ctx, offset, size)
	if err != nil {
		return ListPage{}, fmt.Errorf("list posts: %w", err)
	}
	return ListPage{Posts: posts, Total: total, Page: page, Size: size}, nil
}

// IDs returns every post ID.
func (s *Service) IDs(ctx context.Context) ([]int64, error) {
	ids, err := s.repo.IDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ids: %w", err)
	}
	return ids, nil
}

// Sitemap returns the sitemap projection of every post.
func (s *Service) Sitemap(ctx context.Context) ([]dompost.SitemapEntry, error) {
	entries, err := s.repo.Sitemap(ctx)
	if err != nil {
		return nil, fmt.Errorf("sitemap: %w", err)
	}
	return entries, nil
}

// Reindex recomputes every embedding synchronously, and the HTML too when
// render is set. Per-post failures are counted and logged, not returned.
func (s *Service) Reindex(ctx context.Context, render bool) (ReindexReport, error) {
	ids, err := s.repo.IDs(ctx)
	if err != nil {
		return ReindexReport{}, fmt.Errorf("list ids: %w", err)
	}

	report := ReindexReport{Total: len(ids)}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("reindex interrupted: %w", err)
		}
		if err := s.EmbedPost(ctx, id); err != nil {
			report.Failed++
			s.logger.Error("Reindex embedding failed", zap.Int64("post_id", id), zap.Error(err))
			continue
		}
		report.Embedded++

		if render && s.renderer != nil {
			if err := s.RenderPost(ctx, id); err != nil {
				s.logger.Warn("Reindex rendering failed", zap.Int64("post_id", id), zap.Error(err))
				continue
			}
			report.Rendered++
		}
	}

	s.logger.Info("Reindex finished",
		zap.Int("total", report.Total),
		zap.Int("embedded", report.Embedded),
		zap.Int("rendered", report.Rendered),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ MetadataExtractor = (*metadata.Extractor)(nil)
