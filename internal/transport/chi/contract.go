package chi

import (
	"context"

	dompost "github.com/kailas-cloud/blogdex/internal/domain/post"
	"github.com/kailas-cloud/blogdex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/blogdex/internal/usecase/health"
	postuc "github.com/kailas-cloud/blogdex/internal/usecase/post"
	searchuc "github.com/kailas-cloud/blogdex/internal/usecase/search"
)

// SearchService runs semantic post search.
type SearchService interface {
	Search(ctx context.Context, p searchuc.Params) (result.Page, error)
}

// PostService serves post reads and admin writes.
type PostService interface {
	Create(ctx context.Context, in postuc.Input) (dompost.Post, error)
	Update(ctx context.Context, id int64, in postuc.Input) (dompost.Post, error)
	Get(ctx context.Context, id int64) (dompost.Post, error)
	List(ctx context.Context, page, size int) (postuc.ListPage, error)
	IDs(ctx context.Context) ([]int64, error)
	Sitemap(ctx context.Context) ([]dompost.SitemapEntry, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
