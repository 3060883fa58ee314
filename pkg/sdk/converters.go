package blogdex

import (
	dompost "github.com/kailas-cloud/blogdex/internal/domain/post"
	"github.com/kailas-cloud/blogdex/internal/domain/search/result"
	postuc "github.com/kailas-cloud/blogdex/internal/usecase/post"
)

func toInternalInput(in PostInput) postuc.Input {
	return postuc.Input{
		Title:           in.Title,
		Slug:            in.Slug,
		Content:         in.Content,
		CoverImage:      in.CoverImage,
		HeaderImage:     in.HeaderImage,
		MetaDescription: in.MetaDescription,
		Keywords:        in.Keywords,
		Category:        in.Category,
		Tags:            in.Tags,
		Status:          dompost.Status(in.Status),
		Order:           in.Order,
	}
}

func fromInternalPost(p dompost.Post) Post {
	return Post{
		ID:               p.ID,
		Title:            p.Title,
		Slug:             p.Slug,
		Content:          p.Content,
		ContentHTML:      p.ContentHTML,
		CoverImage:       p.CoverImage,
		HeaderImage:      p.HeaderImage,
		MetaDescription:  p.MetaDescription,
		Keywords:         p.Keywords,
		Category:         p.Category,
		Tags:             p.Tags,
		Status:           PostStatus(p.Status),
		Order:            p.Order,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
		ContentUpdatedAt: p.ContentUpdatedAt,
	}
}

func fromInternalPage(pg postuc.ListPage) PostPage {
	posts := make([]Post, len(pg.Posts))
	for i, p := range pg.Posts {
		posts[i] = fromInternalPost(p)
	}
	return PostPage{Posts: posts, Total: pg.Total, Page: pg.Page, Size: pg.Size}
}

func fromInternalSearchPage(pg result.Page) SearchPage {
	hits := make([]SearchHit, len(pg.Hits))
	for i := range pg.Hits {
		h := &pg.Hits[i]
		hits[i] = SearchHit{Post: fromInternalPost(h.Post()), Similarity: h.Similarity()}
	}
	return SearchPage{Hits: hits, Total: pg.Total, Page: pg.Page, Size: pg.Size}
}

func fromInternalSitemap(entries []dompost.SitemapEntry) []SitemapEntry {
	out := make([]SitemapEntry, len(entries))
	for i, e := range entries {
		out[i] = SitemapEntry{ID: e.ID, Slug: e.Slug, UpdatedAt: e.UpdatedAt}
	}
	return out
}
