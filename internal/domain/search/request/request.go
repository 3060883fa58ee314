package request

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/blogdex/internal/domain"
)

// Search parameter limits.
const (
	// DefaultMaxQueryLength is the maximum query length in characters.
	DefaultMaxQueryLength = 200
	DefaultPage           = 1
	DefaultPageSize       = 10
	DefaultMaxPageSize    = 100
)

// Limits bounds what New accepts.
type Limits struct {
	MaxQueryLength int
	MaxPageSize    int
}

// DefaultLimits returns the stock query and page bounds.
func DefaultLimits() Limits {
	return Limits{MaxQueryLength: DefaultMaxQueryLength, MaxPageSize: DefaultMaxPageSize}
}

// Request is a validated search query.
type Request struct {
	query    string
	page     int
	size     int
	identity string
}

// New validates search parameters. Queries over the length bound are rejected,
// never truncated.
func New(query string, page, size int, identity string, limits Limits) (Request, error) {
	if limits.MaxQueryLength <= 0 {
		limits.MaxQueryLength = DefaultMaxQueryLength
	}
	if limits.MaxPageSize <= 0 {
		limits.MaxPageSize = DefaultMaxPageSize
	}

	if strings.TrimSpace(query) == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
	}
	if n := utf8.RuneCountInString(query); n > limits.MaxQueryLength {
		return Request{}, fmt.Errorf("%w: %d characters, max %d", domain.ErrQueryTooLong, n, limits.MaxQueryLength)
	}
	if page < 1 {
		return Request{}, fmt.Errorf("%w: page must be at least 1", domain.ErrInvalidPagination)
	}
	if size < 1 || size > limits.MaxPageSize {
		return Request{}, fmt.Errorf("%w: size must be between 1 and %d", domain.ErrInvalidPagination, limits.MaxPageSize)
	}

	return Request{query: query, page: page, size: size, identity: identity}, nil
}

// Query returns the search query as submitted.
func (r *Request) Query() string { return r.query }

// NormalizedQuery trims, collapses whitespace and lowercases the query.
// Equal normalized queries share a cache entry and an embedding.
func (r *Request) NormalizedQuery() string {
	return strings.ToLower(strings.Join(strings.Fields(r.query), " "))
}

// Page returns the 1-based page number.
func (r *Request) Page() int { return r.page }

// Size returns the page size.
func (r *Request) Size() int { return r.size }

// Offset returns the index of the first entry on the page.
func (r *Request) Offset() int { return (r.page - 1) * r.size }

// Identity returns the client fingerprint used for rate limiting.
func (r *Request) Identity() string { return r.identity }
