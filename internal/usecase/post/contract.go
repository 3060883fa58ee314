package post

import (
	"context"

	"github.com/kailas-cloud/blogdex/internal/domain"
	"github.com/kailas-cloud/blogdex/internal/domain/metadata"
	dompost "github.com/kailas-cloud/blogdex/internal/domain/post"
	"github.com/kailas-cloud/blogdex/internal/worker"
)

// Repository defines the storage contract for posts.
type Repository interface {
	Create(ctx context.Context, p *dompost.Post) error
	Update(ctx context.Context, p *dompost.Post) error
	Get(ctx context.Context, id int64) (dompost.Post, error)
	List(ctx context.Context, offset, limit int) ([]dompost.Post, error)
	Count(ctx context.Context) (int, error)
	IDs(ctx context.Context) ([]int64, error)
	Sitemap(ctx context.Context) ([]dompost.SitemapEntry, error)
	UpdateEmbedding(ctx context.Context, id int64, vec []float32) error
	UpdateHTML(ctx context.Context, id int64, html string) error
}

// MetadataExtractor derives metadata from raw Markdown.
type MetadataExtractor interface {
	Extract(doc string) metadata.Record
}

// Embedder vectorizes post text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Renderer converts Markdown to HTML.
type Renderer interface {
	Render(ctx context.Context, markdown string) (string, error)
}

// Queue accepts background jobs without blocking.
type Queue interface {
	Enqueue(job worker.Job) bool
}
