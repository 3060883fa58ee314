package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrPostNotFound signals a missing post.
	ErrPostNotFound = errors.New("post not found")
	// ErrInvalidPost signals a post that cannot be saved as submitted.
	ErrInvalidPost = errors.New("invalid post")
	// ErrReservedSlug signals a slug that collides with a routing keyword.
	ErrReservedSlug = errors.New("slug is reserved")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidQuery signals an empty or unusable search query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrQueryTooLong signals a search query above the configured length.
	ErrQueryTooLong = errors.New("query too long")
	// ErrInvalidPagination signals a page or size outside the accepted range.
	ErrInvalidPagination = errors.New("invalid pagination")
	// ErrOutOfRange signals a page past the end of a listing.
	ErrOutOfRange = errors.New("page out of range")
	// ErrEmpty signals a listing with nothing in it.
	ErrEmpty = errors.New("no posts")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingTimeout signals an embedding call that ran past its deadline.
	ErrEmbeddingTimeout = errors.New("embedding provider timeout")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding token budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
)
