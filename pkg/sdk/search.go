package blogdex

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/blogdex/internal/domain/search/request"
	searchuc "github.com/kailas-cloud/blogdex/internal/usecase/search"
)

// SearchService runs semantic post search.
type SearchService struct {
	svc searchUseCase
	obs *observer
}

// Query ranks posts by similarity to query and returns the requested page.
// Zero page or size select the defaults.
func (s *SearchService) Query(ctx context.Context, query string, page, size int) (_ SearchPage, err error) {
	start := time.Now()
	defer func() { s.obs.observe("search.query", start, err) }()

	if page == 0 {
		page = request.DefaultPage
	}
	if size == 0 {
		size = request.DefaultPageSize
	}
	pg, err := s.svc.Search(ctx, searchuc.Params{Query: query, Page: page, Size: size})
	if err != nil {
		return SearchPage{}, fmt.Errorf("search: %w", err)
	}
	return fromInternalSearchPage(pg), nil
}
