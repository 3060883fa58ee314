package blogdex

import "github.com/kailas-cloud/blogdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrPostNotFound           = domain.ErrPostNotFound
	ErrAlreadyExists          = domain.ErrAlreadyExists
	ErrInvalidPost            = domain.ErrInvalidPost
	ErrReservedSlug           = domain.ErrReservedSlug
	ErrInvalidQuery           = domain.ErrInvalidQuery
	ErrQueryTooLong           = domain.ErrQueryTooLong
	ErrInvalidPagination      = domain.ErrInvalidPagination
	ErrOutOfRange             = domain.ErrOutOfRange
	ErrEmpty                  = domain.ErrEmpty
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrEmbeddingQuotaExceeded = domain.ErrEmbeddingQuotaExceeded
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrEmbeddingTimeout       = domain.ErrEmbeddingTimeout
)
