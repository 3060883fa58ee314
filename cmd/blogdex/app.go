package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/blogdex/internal/config"
	dbPostgres "github.com/kailas-cloud/blogdex/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/blogdex/internal/db/redis"
	"github.com/kailas-cloud/blogdex/internal/domain"
	"github.com/kailas-cloud/blogdex/internal/domain/keyword"
	"github.com/kailas-cloud/blogdex/internal/domain/metadata"
	"github.com/kailas-cloud/blogdex/internal/domain/search/request"
	"github.com/kailas-cloud/blogdex/internal/logger"
	"github.com/kailas-cloud/blogdex/internal/metrics"
	budgetrepo "github.com/kailas-cloud/blogdex/internal/repository/budget"
	"github.com/kailas-cloud/blogdex/internal/repository/embcache"
	postrepo "github.com/kailas-cloud/blogdex/internal/repository/post"
	"github.com/kailas-cloud/blogdex/internal/repository/ratelimit"
	"github.com/kailas-cloud/blogdex/internal/repository/searchcache"
	chiTransport "github.com/kailas-cloud/blogdex/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/blogdex/internal/transport/openai"
	"github.com/kailas-cloud/blogdex/internal/transport/renderer"
	embeddinguc "github.com/kailas-cloud/blogdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/blogdex/internal/usecase/health"
	postuc "github.com/kailas-cloud/blogdex/internal/usecase/post"
	searchuc "github.com/kailas-cloud/blogdex/internal/usecase/search"
	"github.com/kailas-cloud/blogdex/internal/worker"
)

// postStore is what both post backends provide.
type postStore interface {
	postuc.Repository
	searchuc.Repository
	healthuc.Pinger
}

// app holds every wired component of one process.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger

	pg     *dbPostgres.DB
	redis  *dbRedis.Store
	pool   *worker.Pool
	posts  *postuc.Service
	server *chiTransport.Server
}

func loadConfig(configPath string) (config.Config, string, error) {
	env := config.GetEnv()
	if configPath != "" {
		cfg, err := config.LoadFile(configPath)
		return cfg, env, err
	}
	cfg, err := config.Load(env)
	return cfg, env, err
}

func newApp(ctx context.Context, configPath string) (_ *app, err error) {
	cfg, env, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &app{env: env, cfg: cfg, logger: log}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	metrics.Register()

	repo, err := a.openPosts(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.UsesRedis() {
		if err := a.openRedis(ctx); err != nil {
			return nil, err
		}
	}

	provider := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     log,
	})
	docEmbedder, queryEmbedder := a.buildEmbedders(ctx, provider)

	keywords, err := keyword.NewExtractor()
	if err != nil {
		return nil, fmt.Errorf("keyword extractor: %w", err)
	}
	meta := metadata.NewExtractor(keywords, cfg.Metadata.KeywordCount)

	var render postuc.Renderer
	if cfg.Renderer.FrontendURL != "" {
		client, err := renderer.New(renderer.Config{
			FrontendURL: cfg.Renderer.FrontendURL,
			Timeout:     time.Duration(cfg.Renderer.TimeoutSec) * time.Second,
			RetryCount:  cfg.Renderer.RetryCount,
		})
		if err != nil {
			return nil, fmt.Errorf("renderer: %w", err)
		}
		render = client
	} else {
		log.Warn("Renderer disabled: renderer.frontend_url is empty")
	}

	a.pool = worker.New(worker.Config{
		Concurrency: cfg.Worker.Concurrency,
		QueueSize:   cfg.Worker.QueueSize,
		JobTimeout:  time.Duration(cfg.Worker.JobTimeoutSec) * time.Second,
	}, log)

	a.posts = postuc.New(repo, meta, docEmbedder, render, a.pool, log).
		WithSlugMaxLength(cfg.Metadata.SlugMaxLength).
		WithMaxPageSize(cfg.Search.MaxPageSize)

	searchSvc := searchuc.New(repo, a.searchCache(), a.rateLimiter(), queryEmbedder, searchuc.Config{
		ConfidenceThreshold: cfg.Search.ConfidenceThreshold,
		EmbeddingTimeout:    cfg.EmbeddingTimeout(),
		Limits: request.Limits{
			MaxQueryLength: cfg.Search.MaxQueryLength,
			MaxPageSize:    cfg.Search.MaxPageSize,
		},
	}, log)

	var redisPinger healthuc.Pinger
	if a.redis != nil {
		redisPinger = a.redis
	}
	healthSvc := healthuc.New(repo, redisPinger, provider)

	a.server = chiTransport.NewServer(searchSvc, a.posts, healthSvc, log).
		WithDefaultPageSize(cfg.Search.DefaultPageSize)
	return a, nil
}

func (a *app) openPosts(ctx context.Context) (postStore, error) {
	if a.cfg.Database.Driver == config.BackendMemory {
		a.logger.Warn("Using in-memory post store: data is lost on restart")
		return postrepo.NewMemory(), nil
	}

	pg, err := dbPostgres.Open(ctx, dbPostgres.Config{
		DSN:      a.cfg.Database.DSN,
		MaxConns: a.cfg.Database.MaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	a.pg = pg

	timeout := time.Duration(a.cfg.Database.ReadinessTimeout) * time.Second
	a.logger.Info("Waiting for PostgreSQL readiness...", zap.Duration("timeout", timeout))
	if err := pg.WaitForReady(ctx, timeout); err != nil {
		return nil, fmt.Errorf("postgres not ready: %w", err)
	}
	a.logger.Info("PostgreSQL is ready")

	return pgPosts{Repo: postrepo.New(pg.Pool()), db: pg}, nil
}

// pgPosts adds the pool health check to the Postgres repository.
type pgPosts struct {
	*postrepo.Repo
	db *dbPostgres.DB
}

func (p pgPosts) Ping(ctx context.Context) error { return p.db.Ping(ctx) }

func (a *app) openRedis(ctx context.Context) error {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    a.cfg.Redis.Addrs,
		Password: a.cfg.Redis.Password,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	a.redis = store

	timeout := time.Duration(a.cfg.Redis.ReadinessTimeout) * time.Second
	a.logger.Info("Waiting for Redis readiness...", zap.Duration("timeout", timeout))
	if err := store.WaitForReady(ctx, timeout); err != nil {
		return fmt.Errorf("redis not ready: %w", err)
	}
	a.logger.Info("Redis is ready")
	return nil
}

// buildEmbedders assembles the decorator chains for post and query text:
// provider, dimension check, optional cache, budget metering, instruction.
// Only post text is cached; queries are covered by the search result cache.
func (a *app) buildEmbedders(ctx context.Context, provider domain.Embedder) (doc, query domain.Embedder) {
	cfg := a.cfg.Embedding
	base := domain.Embedder(domain.NewDimensionEmbedder(provider, cfg.Dimensions))

	var budget embeddinguc.BudgetChecker
	if cfg.Budget.DailyTokenLimit > 0 || cfg.Budget.MonthlyTokenLimit > 0 {
		action := embeddinguc.BudgetAction(cfg.Budget.Action)
		if action == "" {
			action = embeddinguc.BudgetActionWarn
		}
		tracker := embeddinguc.NewBudgetTracker(cfg.Provider, a.cfg.Redis.KeyPrefix, embeddinguc.BudgetLimits{
			Daily:   cfg.Budget.DailyTokenLimit,
			Monthly: cfg.Budget.MonthlyTokenLimit,
			Action:  action,
		}, a.logger)
		budget = tracker.WithStore(ctx, budgetrepo.New(a.redis))
		a.logger.Info("Embedding budget enabled",
			zap.Int64("daily_limit", cfg.Budget.DailyTokenLimit),
			zap.Int64("monthly_limit", cfg.Budget.MonthlyTokenLimit),
			zap.String("action", string(action)),
		)
	}

	docBase := base
	if cfg.CacheTTLSec > 0 {
		docBase = embcache.New(base, a.redis, embcache.Config{
			KeyPrefix: a.cfg.Redis.KeyPrefix,
			Model:     cfg.Model,
			TTL:       time.Duration(cfg.CacheTTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, a.logger)
		a.logger.Info("Post embedding cache enabled", zap.Int("ttl_sec", cfg.CacheTTLSec))
	}

	docMetered := embeddinguc.NewMeteredEmbedder(docBase, embeddinguc.PurposePost, budget, a.logger)
	queryMetered := embeddinguc.NewMeteredEmbedder(base, embeddinguc.PurposeQuery, budget, a.logger)

	return domain.NewInstructionEmbedder(docMetered, cfg.DocumentInstruction),
		domain.NewInstructionEmbedder(queryMetered, cfg.QueryInstruction)
}

func (a *app) searchCache() searchuc.Cache {
	ttl := time.Duration(a.cfg.Search.CacheTTLSec) * time.Second
	if a.cfg.Search.CacheBackend == config.BackendMemory {
		return searchcache.NewMemory(a.cfg.Search.CacheSize, ttl)
	}
	return searchcache.New(a.redis, a.cfg.Redis.KeyPrefix, ttl)
}

// rateLimiter returns nil when limiting is disabled.
func (a *app) rateLimiter() searchuc.RateLimiter {
	if !a.cfg.RateLimitEnabled() {
		a.logger.Info("Search rate limiting disabled")
		return nil
	}
	rl := ratelimit.Config{
		KeyPrefix:   a.cfg.Redis.KeyPrefix + "ratelimit:",
		Prefix:      a.cfg.RateLimit.Prefix,
		MaxRequests: int(a.cfg.RateLimit.MaxRequests),
		Window:      time.Duration(a.cfg.RateLimit.WindowSec) * time.Second,
	}
	if a.cfg.RateLimit.Backend == config.BackendMemory {
		return ratelimit.NewMemory(rl)
	}
	return ratelimit.New(a.redis, rl)
}

func (a *app) close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.pg != nil {
		a.pg.Close()
	}
	_ = a.logger.Sync()
}
