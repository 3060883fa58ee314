package blogdex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "postgres" or "memory"
	dsn      string
	maxConns int32
	migrate  bool

	embedder Embedder
	renderer Renderer

	dimensions          int
	keywordCount        int
	confidenceThreshold float64
	cacheSize           int
	cacheTTL            time.Duration
	workers             int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithPostgres stores posts in PostgreSQL. Migrations are applied on New.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "postgres"
		c.dsn = dsn
		c.migrate = true
	})
}

// WithMaxConns bounds the PostgreSQL pool size.
func WithMaxConns(n int32) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxConns = n
	})
}

// WithMemory keeps posts in process memory. Data is lost on Close.
func WithMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
	})
}

// WithEmbedder sets the text embedding provider. Required.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithRenderer sets the Markdown to HTML renderer.
func WithRenderer(r Renderer) Option {
	return optionFunc(func(c *clientConfig) {
		c.renderer = r
	})
}

// WithDimensions rejects embeddings of any other length. 0 disables the check.
func WithDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimensions = dim
	})
}

// WithKeywordCount sets how many keywords are derived per post. Default: 5.
func WithKeywordCount(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.keywordCount = n
	})
}

// WithConfidenceThreshold sets the cosine distance a match must stay
// strictly below. Default: 0.7.
func WithConfidenceThreshold(t float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.confidenceThreshold = t
	})
}

// WithSearchCache sizes the in-process search result cache.
// Defaults: 1024 queries for one hour.
func WithSearchCache(size int, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheSize = size
		c.cacheTTL = ttl
	})
}

// WithWorkers sets the number of background embedding and rendering workers.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
