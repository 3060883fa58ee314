package result

import (
	"sort"

	"github.com/kailas-cloud/blogdex/internal/domain/post"
)

// Entry is one ranked match: a post id and its cosine distance to the query.
// Lower distance is closer.
type Entry struct {
	PostID   int64   `json:"id"`
	Distance float64 `json:"d"`
}

// Sort orders entries by ascending distance. Equal distances keep their
// ranking order.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Distance < entries[j].Distance
	})
}

// Window returns the entries of a page. An offset past the end yields an
// empty slice, not an error.
func Window(entries []Entry, offset, size int) []Entry {
	if offset < 0 || size <= 0 || offset >= len(entries) {
		return []Entry{}
	}
	end := min(offset+size, len(entries))
	return entries[offset:end]
}

// Hit is a hydrated match.
type Hit struct {
	post     post.Post
	distance float64
}

// NewHit pairs a post with its distance.
func NewHit(p post.Post, distance float64) Hit {
	return Hit{post: p, distance: distance}
}

// Post returns the matched post.
func (h *Hit) Post() post.Post { return h.post }

// Distance returns the cosine distance to the query.
func (h *Hit) Distance() float64 { return h.distance }

// Similarity returns 1 - distance.
func (h *Hit) Similarity() float64 { return 1 - h.distance }

// Page is one page of hydrated hits plus pagination metadata. Total counts
// ranked matches, not hydrated ones.
type Page struct {
	Hits  []Hit
	Total int
	Page  int
	Size  int
}
