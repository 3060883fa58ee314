package blogdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbPostgres "github.com/kailas-cloud/blogdex/internal/db/postgres"
	"github.com/kailas-cloud/blogdex/internal/domain"
	"github.com/kailas-cloud/blogdex/internal/domain/keyword"
	"github.com/kailas-cloud/blogdex/internal/domain/metadata"
	dompost "github.com/kailas-cloud/blogdex/internal/domain/post"
	"github.com/kailas-cloud/blogdex/internal/domain/search/result"
	postrepo "github.com/kailas-cloud/blogdex/internal/repository/post"
	"github.com/kailas-cloud/blogdex/internal/repository/searchcache"
	healthuc "github.com/kailas-cloud/blogdex/internal/usecase/health"
	postuc "github.com/kailas-cloud/blogdex/internal/usecase/post"
	searchuc "github.com/kailas-cloud/blogdex/internal/usecase/search"
	"github.com/kailas-cloud/blogdex/internal/worker"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultCloseTimeout     = 30 * time.Second
	defaultCacheSize        = 1024
	defaultCacheTTL         = time.Hour
)

// Internal interfaces, swapped for mocks in tests.
type postUseCase interface {
	Create(ctx context.Context, in postuc.Input) (dompost.Post, error)
	Update(ctx context.Context, id int64, in postuc.Input) (dompost.Post, error)
	Get(ctx context.Context, id int64) (dompost.Post, error)
	List(ctx context.Context, page, size int) (postuc.ListPage, error)
	IDs(ctx context.Context) ([]int64, error)
	Sitemap(ctx context.Context) ([]dompost.SitemapEntry, error)
	Reindex(ctx context.Context, render bool) (postuc.ReindexReport, error)
}

type searchUseCase interface {
	Search(ctx context.Context, p searchuc.Params) (result.Page, error)
}

type postStore interface {
	postuc.Repository
	searchuc.Repository
	healthuc.Pinger
}

// Client is the blogdex SDK entry point.
type Client struct {
	db        *dbPostgres.DB
	pool      *worker.Pool
	postSvc   postUseCase
	searchSvc searchUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client, connects to the post store and starts the
// background workers. The provided context is used for the readiness
// check and migrations only.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("blogdex: post store required (use WithPostgres or WithMemory)")
	}
	if cfg.embedder == nil {
		return nil, errors.New("blogdex: embedder required (use WithEmbedder)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, pg, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c, err := wireClient(store, cfg, obs)
	if err != nil {
		if pg != nil {
			pg.Close()
		}
		return nil, err
	}
	c.db = pg
	return c, nil
}

func openStore(ctx context.Context, cfg *clientConfig) (postStore, *dbPostgres.DB, error) {
	switch cfg.driver {
	case "memory":
		return postrepo.NewMemory(), nil, nil
	case "postgres":
		pg, err := dbPostgres.Open(ctx, dbPostgres.Config{DSN: cfg.dsn, MaxConns: cfg.maxConns})
		if err != nil {
			return nil, nil, fmt.Errorf("blogdex: open postgres: %w", err)
		}
		if err := pg.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			pg.Close()
			return nil, nil, fmt.Errorf("blogdex: database not ready: %w", err)
		}
		if cfg.migrate {
			if err := pg.Migrate(ctx); err != nil {
				pg.Close()
				return nil, nil, fmt.Errorf("blogdex: migrate: %w", err)
			}
		}
		return pgStore{Repo: postrepo.New(pg.Pool()), db: pg}, pg, nil
	default:
		return nil, nil, fmt.Errorf("blogdex: unknown driver %q", cfg.driver)
	}
}

// pgStore adds the pool health check to the Postgres repository.
type pgStore struct {
	*postrepo.Repo
	db *dbPostgres.DB
}

func (s pgStore) Ping(ctx context.Context) error { return s.db.Ping(ctx) }

func wireClient(store postStore, cfg *clientConfig, obs *observer) (*Client, error) {
	logger := zap.NewNop()

	var emb domain.Embedder = &embedderAdapter{inner: cfg.embedder}
	if cfg.dimensions > 0 {
		emb = domain.NewDimensionEmbedder(emb, cfg.dimensions)
	}

	keywords, err := keyword.NewExtractor()
	if err != nil {
		return nil, fmt.Errorf("blogdex: keyword extractor: %w", err)
	}
	meta := metadata.NewExtractor(keywords, cfg.keywordCount)

	var render postuc.Renderer
	if cfg.renderer != nil {
		render = cfg.renderer
	}

	pool := worker.New(worker.Config{Concurrency: cfg.workers}, logger)
	pool.Start(context.Background())

	size, ttl := cfg.cacheSize, cfg.cacheTTL
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &Client{
		pool:    pool,
		postSvc: postuc.New(store, meta, emb, render, pool, logger),
		searchSvc: searchuc.New(store, searchcache.NewMemory(size, ttl), nil, emb, searchuc.Config{
			ConfidenceThreshold: cfg.confidenceThreshold,
		}, logger),
		healthSvc: healthuc.New(store, nil, nil),
		obs:       obs,
	}, nil
}

// Close waits for queued background jobs and releases all resources.
func (c *Client) Close() {
	if c.pool != nil {
		ctx, cancel := context.WithTimeout(context.Background(), defaultCloseTimeout)
		defer cancel()
		if err := c.pool.Stop(ctx); err != nil && c.obs != nil && c.obs.logger != nil {
			c.obs.logger.Warn("background jobs did not finish", "error", err)
		}
	}
	if c.db != nil {
		c.db.Close()
	}
}

// Posts returns the post service.
func (c *Client) Posts() *PostService {
	return &PostService{svc: c.postSvc, obs: c.obs}
}

// Search returns the search service.
func (c *Client) Search() *SearchService {
	return &SearchService{svc: c.searchSvc, obs: c.obs}
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
