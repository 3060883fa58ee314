package blogdex

import "time"

// PostStatus is the publication state of a post.
type PostStatus string

// Post status constants.
const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
)

// Post is a stored blog post.
type Post struct {
	ID               int64
	Title            string
	Slug             string
	Content          string
	ContentHTML      string
	CoverImage       string
	HeaderImage      string
	MetaDescription  string
	Keywords         string
	Category         string
	Tags             []string
	Status           PostStatus
	Order            int
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ContentUpdatedAt time.Time
}

// PostInput is a post to save. Empty fields are derived from Content
// (front matter first, then the body) where possible.
type PostInput struct {
	Title           string
	Slug            string
	Content         string
	CoverImage      string
	HeaderImage     string
	MetaDescription string
	Keywords        string
	Category        string
	Tags            []string
	Status          PostStatus // default: draft
	Order           int
}

// PostPage is one page of the post listing, newest order first.
type PostPage struct {
	Posts []Post
	Total int
	Page  int
	Size  int
}

// SitemapEntry is the minimal projection used to build sitemaps.
type SitemapEntry struct {
	ID        int64
	Slug      string
	UpdatedAt time.Time
}

// SearchHit is a single search match.
type SearchHit struct {
	Post       Post
	Similarity float64 // 1 - cosine distance
}

// SearchPage is one page of ranked matches.
type SearchPage struct {
	Hits  []SearchHit
	Total int
	Page  int
	Size  int
}

// ReindexReport summarizes a reindex run.
type ReindexReport struct {
	Total    int
	Embedded int
	Rendered int
	Failed   int
}
