// Package search answers semantic post queries: it validates and rate-limits
// the request, serves the ranked list from cache or ranks on a miss, then
// paginates and hydrates the page.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/blogdex/internal/domain"
	"github.com/kailas-cloud/blogdex/internal/domain/search/request"
	"github.com/kailas-cloud/blogdex/internal/domain/search/result"
	"github.com/kailas-cloud/blogdex/internal/logger"
	"github.com/kailas-cloud/blogdex/internal/metrics"
	"github.com/kailas-cloud/blogdex/internal/repository/searchcache"
)

// Defaults for the orchestrator.
const (
	DefaultConfidenceThreshold = 0.7
	DefaultEmbeddingTimeout    = 10 * time.Second
)

// Config tunes ranking and validation.
type Config struct {
	// ConfidenceThreshold is the cosine distance a match must stay strictly below.
	ConfidenceThreshold float64
	EmbeddingTimeout    time.Duration
	Limits              request.Limits
}

// Params are the raw inputs of a search call.
type Params struct {
	Query    string
	Page     int
	Size     int
	Identity string
}

// Service orchestrates a search request.
type Service struct {
	repo    Repository
	cache   Cache
	limiter RateLimiter
	embed   Embedder
	cfg     Config
	flight  singleflight.Group
	logger  *zap.Logger
}

// New creates a search service. limiter may be nil to disable rate limiting.
func New(repo Repository, cache Cache, limiter RateLimiter, embed Embedder, cfg Config, logger *zap.Logger) *Service {
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if cfg.EmbeddingTimeout <= 0 {
		cfg.EmbeddingTimeout = DefaultEmbeddingTimeout
	}
	return &Service{repo: repo, cache: cache, limiter: limiter, embed: embed, cfg: cfg, logger: logger}
}

// Search runs one query and returns the requested page.
func (s *Service) Search(ctx context.Context, p Params) (page result.Page, err error) {
	start := time.Now()
	defer func() {
		metrics.SearchRequestsTotal.WithLabelValues(outcome(err)).Inc()
		metrics.SearchDuration.Observe(time.Since(start).Seconds())
	}()

	req, err := request.New(p.Query, p.Page, p.Size, p.Identity, s.cfg.Limits)
	if err != nil {
		s.log(ctx).Debug("Search request rejected", zap.Error(err))
		return result.Page{}, err
	}

	if err := s.admit(ctx, req.Identity()); err != nil {
		return result.Page{}, err
	}

	entries, err := s.ranked(ctx, &req)
	if err != nil {
		return result.Page{}, err
	}

	hits, err := s.hydrate(ctx, result.Window(entries, req.Offset(), req.Size()))
	if err != nil {
		return result.Page{}, err
	}
	return result.Page{Hits: hits, Total: len(entries), Page: req.Page(), Size: req.Size()}, nil
}

// log returns the request logger when ctx carries one.
func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

// admit applies the rate limiter. Limiter failures let the request through.
func (s *Service) admit(ctx context.Context, identity string) error {
	if s.limiter == nil {
		return nil
	}
	allowed, err := s.limiter.Allow(ctx, identity)
	if err != nil {
		metrics.RateLimitDecisionsTotal.WithLabelValues("error").Inc()
		s.log(ctx).Warn("Rate limiter unavailable, allowing request",
			zap.String("identity", identity), zap.Error(err))
		return nil
	}
	if !allowed {
		metrics.RateLimitDecisionsTotal.WithLabelValues("rejected").Inc()
		s.log(ctx).Info("Search rate limited", zap.String("identity", identity))
		return fmt.Errorf("identity %s: %w", identity, domain.ErrRateLimited)
	}
	metrics.RateLimitDecisionsTotal.WithLabelValues("allowed").Inc()
	return nil
}

// ranked returns the full ranked list for the query, from cache when possible.
// Concurrent misses for one key share a single ranking.
func (s *Service) ranked(ctx context.Context, req *request.Request) ([]result.Entry, error) {
	key := searchcache.Key(req.NormalizedQuery())

	entries, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.SearchCacheTotal.WithLabelValues("error").Inc()
		s.log(ctx).Warn("Search cache read failed, ranking afresh", zap.String("key", key), zap.Error(err))
	case ok:
		metrics.SearchCacheTotal.WithLabelValues("hit").Inc()
		return entries, nil
	default:
		metrics.SearchCacheTotal.WithLabelValues("miss").Inc()
	}

	query := req.NormalizedQuery()
	ch := s.flight.DoChan(key, func() (any, error) {
		return s.rank(context.WithoutCancel(ctx), key, query)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]result.Entry), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("await ranking: %w", ctx.Err())
	}
}

// rank embeds the query, scores stored vectors and caches the list.
func (s *Service) rank(ctx context.Context, key, query string) ([]result.Entry, error) {
	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.Similar(ctx, vec, s.cfg.ConfidenceThreshold)
	if err != nil {
		return nil, fmt.Errorf("rank posts: %w", err)
	}
	result.Sort(entries)

	if err := s.cache.Set(ctx, key, entries); err != nil {
		s.log(ctx).Warn("Search cache write failed", zap.String("key", key), zap.Error(err))
	}
	return entries, nil
}

func (s *Service) embedQuery(ctx context.Context, query string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.EmbeddingTimeout)
	defer cancel()

	res, err := s.embed.Embed(ctx, query)
	if err == nil {
		return res.Embedding, nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		s.log(ctx).Error("Query embedding timed out",
			zap.String("error_kind", "embedding_timeout"),
			zap.Duration("timeout", s.cfg.EmbeddingTimeout),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingTimeout, err)
	}
	s.log(ctx).Error("Query embedding failed",
		zap.String("error_kind", "embedding_provider"),
		zap.Error(err),
	)
	return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
}

// hydrate loads the posts of a page in one batch, keeping ranking order.
// Entries whose post vanished are dropped.
func (s *Service) hydrate(ctx context.Context, window []result.Entry) ([]result.Hit, error) {
	hits := make([]result.Hit, 0, len(window))
	if len(window) == 0 {
		return hits, nil
	}

	ids := make([]int64, len(window))
	for i, e := range window {
		ids[i] = e.PostID
	}
	posts, err := s.repo.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate posts: %w", err)
	}

	for _, e := range window {
		if p, ok := posts[e.PostID]; ok {
			hits = append(hits, result.NewHit(p, e.Distance))
		}
	}
	return hits, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidQuery),
		errors.Is(err, domain.ErrQueryTooLong),
		errors.Is(err, domain.ErrInvalidPagination):
		return "invalid"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrEmbeddingTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		return "provider_error"
	default:
		return "error"
	}
}
