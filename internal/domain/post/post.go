// Package post defines the persisted blog post.
package post

import (
	"strings"
	"time"
)

// Status is the publication state of a post.
type Status string

// Post statuses.
const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	return s == StatusDraft || s == StatusPublished
}

// reservedSlugs collide with fixed routes under /api/post.
var reservedSlugs = map[string]struct{}{
	"posts": {}, "sitemap": {}, "search": {}, "post": {}, "all": {}, "query": {}, "ids": {},
}

// IsReservedSlug reports whether slug would shadow a fixed route.
func IsReservedSlug(slug string) bool {
	_, ok := reservedSlugs[strings.ToLower(slug)]
	return ok
}

// Post is a blog post as stored.
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
	Status           Status
	Order            int
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ContentUpdatedAt time.Time
}

// EmbeddingText is the text encoded for semantic search.
func (p *Post) EmbeddingText(plain string) string {
	if p.Title == "" {
		return plain
	}
	return p.Title + "\n\n" + plain
}

// SitemapEntry is the minimal projection used to build sitemaps.
type SitemapEntry struct {
	ID        int64
	Slug      string
	UpdatedAt time.Time
}
