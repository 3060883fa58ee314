package blogdex

import (
	"context"

	dompost "github.com/kailas-cloud/blogdex/internal/domain/post"
	"github.com/kailas-cloud/blogdex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/blogdex/internal/usecase/health"
	postuc "github.com/kailas-cloud/blogdex/internal/usecase/post"
	searchuc "github.com/kailas-cloud/blogdex/internal/usecase/search"
)

// --- postUseCase mock ---

type mockPostUC struct {
	createFn  func(ctx context.Context, in postuc.Input) (dompost.Post, error)
	updateFn  func(ctx context.Context, id int64, in postuc.Input) (dompost.Post, error)
	getFn     func(ctx context.Context, id int64) (dompost.Post, error)
	listFn    func(ctx context.Context, page, size int) (postuc.ListPage, error)
	idsFn     func(ctx context.Context) ([]int64, error)
	sitemapFn func(ctx context.Context) ([]dompost.SitemapEntry, error)
	reindexFn func(ctx context.Context, render bool) (postuc.ReindexReport, error)
}

func (m *mockPostUC) Create(ctx context.Context, in postuc.Input) (dompost.Post, error) {
	return m.createFn(ctx, in)
}

func (m *mockPostUC) Update(ctx context.Context, id int64, in postuc.Input) (dompost.Post, error) {
	return m.updateFn(ctx, id, in)
}

func (m *mockPostUC) Get(ctx context.Context, id int64) (dompost.Post, error) {
	return m.getFn(ctx, id)
}

func (m *mockPostUC) List(ctx context.Context, page, size int) (postuc.ListPage, error) {
	return m.listFn(ctx, page, size)
}

func (m *mockPostUC) IDs(ctx context.Context) ([]int64, error) {
	return m.idsFn(ctx)
}

func (m *mockPostUC) Sitemap(ctx context.Context) ([]dompost.SitemapEntry, error) {
	return m.sitemapFn(ctx)
}

func (m *mockPostUC) Reindex(ctx context.Context, render bool) (postuc.ReindexReport, error) {
	return m.reindexFn(ctx, render)
}

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, p searchuc.Params) (result.Page, error)
}

func (m *mockSearchUC) Search(ctx context.Context, p searchuc.Params) (result.Page, error) {
	return m.searchFn(ctx, p)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- embedder mock ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}
