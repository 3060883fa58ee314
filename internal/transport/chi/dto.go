package chi

import (
	"time"

	dompost "github.com/kailas-cloud/blogdex/internal/domain/post"
	"github.com/kailas-cloud/blogdex/internal/domain/search/result"
	postuc "github.com/kailas-cloud/blogdex/internal/usecase/post"
)

// Error codes returned in errorResponse.Code.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeUnauthorized     = "unauthorized"
	codeNotFound         = "not_found"
	codeEmpty            = "empty"
	codeOutOfRange       = "out_of_range"
	codeAlreadyExists    = "already_exists"
	codeReservedSlug     = "reserved_slug"
	codeRateLimited      = "rate_limited"
	codeQuotaExceeded    = "embedding_quota_exceeded"
	codeProviderError    = "embedding_provider_error"
	codeProviderTimeout  = "embedding_timeout"
	codeInternalError    = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
}

// postJSON is the full post returned by the detail and admin endpoints.
type postJSON struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Slug             string    `json:"slug"`
	Content          string    `json:"content"`
	ContentHTML      string    `json:"content_html"`
	CoverImage       *string   `json:"cover_image"`
	HeaderImage      *string   `json:"header_image"`
	MetaDescription  string    `json:"meta_description"`
	Keywords         *string   `json:"keywords"`
	Category         *string   `json:"category"`
	Tags             []string  `json:"tags"`
	Status           string    `json:"status"`
	Order            int       `json:"order"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"update_at"`
	ContentUpdatedAt time.Time `json:"content_updated_at"`
}

// cardJSON is the abbreviated post used in listings and search results.
type cardJSON struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	CoverImage      *string   `json:"cover_image"`
	MetaDescription string    `json:"meta_description"`
	Category        *string   `json:"category"`
	Tags            []string  `json:"tags"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"update_at"`
}

type cardsResponse struct {
	Posts      []cardJSON `json:"posts"`
	Pagination pagination `json:"pagination"`
}

type hitJSON struct {
	Post       cardJSON `json:"post"`
	Similarity float64  `json:"similarity"`
}

type searchResponse struct {
	PostsWithSimilarity []hitJSON  `json:"posts_with_similarity"`
	Pagination          pagination `json:"pagination"`
}

type idsResponse struct {
	IDs []int64 `json:"ids"`
}

type sitemapJSON struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	UpdatedAt time.Time `json:"update_at"`
}

// postRequest is the admin create/update body.
type postRequest struct {
	Title           string   `json:"title"`
	Slug            string   `json:"slug"`
	Content         string   `json:"content"`
	CoverImage      string   `json:"cover_image"`
	HeaderImage     string   `json:"header_image"`
	MetaDescription string   `json:"meta_description"`
	Keywords        string   `json:"keywords"`
	Category        string   `json:"category"`
	Tags            []string `json:"tags"`
	Status          string   `json:"status"`
	Order           int      `json:"order"`
}

func (r postRequest) toInput() postuc.Input {
	return postuc.Input{
		Title:           r.Title,
		Slug:            r.Slug,
		Content:         r.Content,
		CoverImage:      r.CoverImage,
		HeaderImage:     r.HeaderImage,
		MetaDescription: r.MetaDescription,
		Keywords:        r.Keywords,
		Category:        r.Category,
		Tags:            r.Tags,
		Status:          dompost.Status(r.Status),
		Order:           r.Order,
	}
}

func postToJSON(p dompost.Post) postJSON {
	return postJSON{
		ID:               p.ID,
		Title:            p.Title,
		Slug:             p.Slug,
		Content:          p.Content,
		ContentHTML:      p.ContentHTML,
		CoverImage:       optional(p.CoverImage),
		HeaderImage:      optional(p.HeaderImage),
		MetaDescription:  p.MetaDescription,
		Keywords:         optional(p.Keywords),
		Category:         optional(p.Category),
		Tags:             nonNil(p.Tags),
		Status:           string(p.Status),
		Order:            p.Order,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
		ContentUpdatedAt: p.ContentUpdatedAt,
	}
}

func cardToJSON(p dompost.Post) cardJSON {
	return cardJSON{
		ID:              p.ID,
		Title:           p.Title,
		Slug:            p.Slug,
		CoverImage:      optional(p.CoverImage),
		MetaDescription: p.MetaDescription,
		Category:        optional(p.Category),
		Tags:            nonNil(p.Tags),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func searchPageToJSON(page result.Page) searchResponse {
	hits := make([]hitJSON, 0, len(page.Hits))
	for _, h := range page.Hits {
		hits = append(hits, hitJSON{Post: cardToJSON(h.Post()), Similarity: h.Similarity()})
	}
	return searchResponse{
		PostsWithSimilarity: hits,
		Pagination:          pagination{Total: page.Total, Page: page.Page, Size: page.Size},
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
