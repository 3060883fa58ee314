package search

import (
	"context"

	"github.com/kailas-cloud/blogdex/internal/domain"
	"github.com/kailas-cloud/blogdex/internal/domain/post"
	"github.com/kailas-cloud/blogdex/internal/domain/search/result"
)

// Repository ranks stored vectors and hydrates posts.
type Repository interface {
	Similar(ctx context.Context, vec []float32, maxDistance float64) ([]result.Entry, error)
	GetMany(ctx context.Context, ids []int64) (map[int64]post.Post, error)
}

// Cache stores the full ranked list per query key.
type Cache interface {
	Get(ctx context.Context, key string) ([]result.Entry, bool, error)
	Set(ctx context.Context, key string, entries []result.Entry) error
}

// RateLimiter admits or rejects a request for a client identity.
type RateLimiter interface {
	Allow(ctx context.Context, identity string) (bool, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
