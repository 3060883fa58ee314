// Package metadata derives display and SEO fields for a post from its raw
// Markdown source.
package metadata

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kailas-cloud/blogdex/internal/domain/frontmatter"
	"github.com/kailas-cloud/blogdex/internal/domain/keyword"
	"github.com/kailas-cloud/blogdex/internal/domain/text"
)

// DescriptionLength caps the description in runes, ellipsis included.
const DescriptionLength = 150

const ellipsis = "…"

var (
	coverKeys  = []string{"cover_image", "cover-image", "cover_img", "cover-img", "cover"}
	headerKeys = []string{"header_image", "header-image", "og_image", "og-image"}

	markdownImage = regexp.MustCompile(`!\[[^\]]*\]\(\s*([^)\s]+)[^)]*\)`)
	htmlImage     = regexp.MustCompile(`(?i)<img\b[^>]*?\bsrc\s*=\s*["']([^"']+)["']`)
)

// Record is the derived metadata of one document. Optional fields are nil
// when neither front matter nor the body supplies them.
type Record struct {
	Title       *string
	Slug        *string
	Category    *string
	CoverImage  *string
	HeaderImage *string
	Tags        []string
	Keywords    string
	Description string
}

// KeywordSource ranks terms of normalized text.
type KeywordSource interface {
	Extract(text string, n int) []string
}

// Extractor builds Records. Safe for concurrent use.
type Extractor struct {
	keywords     KeywordSource
	keywordCount int
}

// NewExtractor creates an extractor that keeps keywordCount keywords.
func NewExtractor(keywords KeywordSource, keywordCount int) *Extractor {
	if keywordCount <= 0 {
		keywordCount = keyword.DefaultCount
	}
	return &Extractor{keywords: keywords, keywordCount: keywordCount}
}

// Extract parses front matter and body of doc. It never fails; unusable input
// produces an empty record.
func (e *Extractor) Extract(doc string) Record {
	fm := frontmatter.Parse(doc)
	firstImage, hasImage := FirstImage(doc)
	plain := text.Normalize(doc)

	rec := Record{Tags: tags(fm)}
	rec.Keywords = keyword.Merge(
		explicitKeywords(fm),
		rec.Tags,
		e.keywords.Extract(plain, e.keywordCount),
		e.keywordCount,
	)
	rec.Category = category(fm)
	rec.CoverImage = firstOf(fm, coverKeys)
	rec.HeaderImage = firstOf(fm, headerKeys)
	if rec.HeaderImage == nil && hasImage {
		rec.HeaderImage = &firstImage
	}
	rec.Description = Describe(plain)
	rec.Title = scalar(fm, "title")
	rec.Slug = scalar(fm, "slug")
	return rec
}

// FirstImage returns the first image reference in doc. Markdown images win
// over HTML <img> tags regardless of position.
func FirstImage(doc string) (string, bool) {
	if m := markdownImage.FindStringSubmatch(doc); m != nil {
		return m[1], true
	}
	if m := htmlImage.FindStringSubmatch(doc); m != nil {
		return m[1], true
	}
	return "", false
}

// Describe collapses whitespace and cuts plain text to DescriptionLength runes,
// backing off to the last word boundary when the cut lands inside a word.
func Describe(plain string) string {
	s := text.CollapseWhitespace(plain)
	if utf8.RuneCountInString(s) <= DescriptionLength {
		return s
	}
	runes := []rune(s)
	keep := DescriptionLength - utf8.RuneCountInString(ellipsis)
	cut := runes[:keep]
	if isWordRune(runes[keep-1]) && isWordRune(runes[keep]) {
		for i := len(cut) - 1; i > keep/2; i-- {
			if unicode.IsSpace(cut[i]) {
				cut = cut[:i]
				break
			}
		}
	}
	return strings.TrimRightFunc(string(cut), unicode.IsSpace) + ellipsis
}

// isWordRune reports letters and digits of space-delimited scripts. Han text
// can be cut anywhere.
func isWordRune(r rune) bool {
	if unicode.Is(unicode.Han, r) {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func tags(fm frontmatter.FrontMatter) []string {
	out := []string{}
	for _, key := range []string{"tags", "tag"} {
		if v, ok := fm.Get(key); ok {
			for _, t := range v.Strings() {
				if t = strings.TrimSpace(t); t != "" {
					out = append(out, t)
				}
			}
		}
	}
	return out
}

func explicitKeywords(fm frontmatter.FrontMatter) []string {
	v, ok := fm.Get("keywords")
	if !ok {
		return nil
	}
	if v.Kind() == frontmatter.KindList {
		return v.Strings()
	}
	s, ok := v.Text()
	if !ok {
		return nil
	}
	return keyword.SplitList(s)
}

func category(fm frontmatter.FrontMatter) *string {
	if v, ok := fm.Get("category"); ok {
		if s, ok := v.First(); ok {
			return &s
		}
	}
	if v, ok := fm.Get("categories"); ok {
		if s, ok := v.First(); ok {
			return &s
		}
	}
	return nil
}

func firstOf(fm frontmatter.FrontMatter, keys []string) *string {
	for _, key := range keys {
		if s := scalar(fm, key); s != nil {
			return s
		}
	}
	return nil
}

func scalar(fm frontmatter.FrontMatter, key string) *string {
	v, ok := fm.Get(key)
	if !ok {
		return nil
	}
	s, ok := v.First()
	if !ok {
		return nil
	}
	return &s
}
