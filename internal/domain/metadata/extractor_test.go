package metadata

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

type stubKeywords struct {
	terms []string
	got   string
}

func (s *stubKeywords) Extract(text string, n int) []string {
	s.got = text
	if len(s.terms) > n {
		return s.terms[:n]
	}
	return s.terms
}

func deref(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func TestExtract_Basic(t *testing.T) {
	doc := `---
title: Test Post
tags: [python, django]
category: Programming
cover_image: cover.jpg
og_image: header.jpg
---
# This is a test post

This is the content of the test post with some **bold** text and ` + "`code`" + `.

![First Image](first.jpg)

More content here.
`
	kw := &stubKeywords{terms: []string{"content", "test"}}
	rec := NewExtractor(kw, 5).Extract(doc)

	if deref(rec.Title) != "Test Post" {
		t.Errorf("title = %s", deref(rec.Title))
	}
	if !reflect.DeepEqual(rec.Tags, []string{"python", "django"}) {
		t.Errorf("tags = %v", rec.Tags)
	}
	if deref(rec.Category) != "Programming" {
		t.Errorf("category = %s", deref(rec.Category))
	}
	if deref(rec.CoverImage) != "cover.jpg" {
		t.Errorf("cover = %s", deref(rec.CoverImage))
	}
	if deref(rec.HeaderImage) != "header.jpg" {
		t.Errorf("header = %s", deref(rec.HeaderImage))
	}
	if rec.Keywords != "python,django,content,test" {
		t.Errorf("keywords = %q", rec.Keywords)
	}
	if strings.Contains(kw.got, "**") || strings.Contains(kw.got, "title:") {
		t.Errorf("keyword source got unnormalized text: %q", kw.got)
	}
	if !strings.HasPrefix(rec.Description, "This is a test post") {
		t.Errorf("description = %q", rec.Description)
	}
}

func TestExtract_NoFrontMatter(t *testing.T) {
	doc := "# Simple Post\n\nThis is a simple post without front matter.\n\n![Only Image](only.jpg)\n"
	rec := NewExtractor(&stubKeywords{}, 5).Extract(doc)

	if rec.Title != nil || rec.Slug != nil || rec.Category != nil || rec.CoverImage != nil {
		t.Errorf("expected nil optional fields, got %+v", rec)
	}
	if deref(rec.HeaderImage) != "only.jpg" {
		t.Errorf("header = %s", deref(rec.HeaderImage))
	}
	if rec.Tags == nil || len(rec.Tags) != 0 {
		t.Errorf("tags should be an empty, non-nil list: %#v", rec.Tags)
	}
}

func TestExtract_HTMLImageBecomesHeader(t *testing.T) {
	rec := NewExtractor(&stubKeywords{}, 5).Extract(`intro <img src="x.jpg"> outro`)
	if deref(rec.HeaderImage) != "x.jpg" {
		t.Errorf("header = %s", deref(rec.HeaderImage))
	}
}

func TestExtract_TagFormats(t *testing.T) {
	tests := []struct {
		doc  string
		want []string
	}{
		{"---\ntags: python\n---\ncontent", []string{"python"}},
		{"---\ntags: [python, django]\n---\ncontent", []string{"python", "django"}},
		{"---\ntag: python\n---\ncontent", []string{"python"}},
		{"---\ntag: [python, django]\n---\ncontent", []string{"python", "django"}},
		{"---\ntags: python\ntag: django\n---\ncontent", []string{"python", "django"}},
	}
	e := NewExtractor(&stubKeywords{}, 5)
	for _, tt := range tests {
		if got := e.Extract(tt.doc).Tags; !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%q: tags = %v, want %v", tt.doc, got, tt.want)
		}
	}
}

func TestExtract_Category(t *testing.T) {
	tests := []struct {
		doc  string
		want string
	}{
		{"---\ncategory: Tech\n---\ncontent", "Tech"},
		{"---\ncategories: Tech\n---\ncontent", "Tech"},
		{"---\ncategories: [Tech, Blog]\n---\ncontent", "Tech"},
		{"---\ncategory: [Tech, Blog]\n---\ncontent", "Tech"},
		{"---\ncategory: Go\ncategories: [Tech]\n---\ncontent", "Go"},
		{"---\n---\ncontent", "<nil>"},
	}
	e := NewExtractor(&stubKeywords{}, 5)
	for _, tt := range tests {
		if got := deref(e.Extract(tt.doc).Category); got != tt.want {
			t.Errorf("%q: category = %s, want %s", tt.doc, got, tt.want)
		}
	}
}

func TestExtract_ImageKeys(t *testing.T) {
	tests := []struct {
		doc    string
		cover  string
		header string
	}{
		{"---\ncover_image: c.jpg\n---\n", "c.jpg", "<nil>"},
		{"---\ncover-image: c.jpg\n---\n", "c.jpg", "<nil>"},
		{"---\ncover_img: c.jpg\n---\n", "c.jpg", "<nil>"},
		{"---\ncover-img: c.jpg\n---\n", "c.jpg", "<nil>"},
		{"---\ncover: c.jpg\n---\n", "c.jpg", "<nil>"},
		{"---\ncover: null\ncover-img: late.jpg\n---\n", "late.jpg", "<nil>"},
		{"---\nheader_image: h.jpg\n---\n", "<nil>", "h.jpg"},
		{"---\nheader-image: h.jpg\n---\n", "<nil>", "h.jpg"},
		{"---\nog_image: h.jpg\n---\n", "<nil>", "h.jpg"},
		{"---\nog-image: h.jpg\n---\n![a](body.jpg)", "<nil>", "h.jpg"},
	}
	e := NewExtractor(&stubKeywords{}, 5)
	for _, tt := range tests {
		rec := e.Extract(tt.doc)
		if got := deref(rec.CoverImage); got != tt.cover {
			t.Errorf("%q: cover = %s, want %s", tt.doc, got, tt.cover)
		}
		if got := deref(rec.HeaderImage); got != tt.header {
			t.Errorf("%q: header = %s, want %s", tt.doc, got, tt.header)
		}
	}
}

func TestExtract_KeywordPrecedence(t *testing.T) {
	doc := "---\ntitle: Test\nkeywords: [kw1, kw2]\ntags: [tag1]\n---\nContent with python and django"
	rec := NewExtractor(&stubKeywords{terms: []string{"python", "django"}}, 3).Extract(doc)
	if rec.Keywords != "kw1,kw2,tag1" {
		t.Errorf("keywords = %q", rec.Keywords)
	}

	doc = "---\nkeywords: go, redis\n---\nbody"
	rec = NewExtractor(&stubKeywords{terms: []string{"body"}}, 5).Extract(doc)
	if rec.Keywords != "go,redis,body" {
		t.Errorf("scalar keywords = %q", rec.Keywords)
	}
}

func TestExtract_KeywordLimitCountsCommaSeparatedTerms(t *testing.T) {
	docs := []string{
		"---\nkeywords: [\"go,redis\", cache]\n---\nbody",
		"---\ntags: \"go, rust\"\n---\nbody",
	}
	e := NewExtractor(&stubKeywords{terms: []string{"golang"}}, 2)
	for _, doc := range docs {
		got := e.Extract(doc).Keywords
		if n := len(strings.Split(got, ",")); n > 2 {
			t.Errorf("%q: keywords = %q (%d terms), want at most 2", doc, got, n)
		}
	}
}

func TestFirstImage(t *testing.T) {
	tests := []struct {
		doc  string
		want string
		ok   bool
	}{
		{"![alt](image.jpg)", "image.jpg", true},
		{"![alt text](https://example.com/image.png)", "https://example.com/image.png", true},
		{"<img src='local.jpg'>", "local.jpg", true},
		{`<IMG alt="x" SRC="https://test.com/img.jpg">`, "https://test.com/img.jpg", true},
		{"Text ![first](first.jpg) ![second](second.jpg)", "first.jpg", true},
		{"<img src='html.jpg'> then ![markdown](img.png)", "img.png", true},
		{`![titled](pic.png "A title")`, "pic.png", true},
		{"No image here", "", false},
	}
	for _, tt := range tests {
		got, ok := FirstImage(tt.doc)
		if got != tt.want || ok != tt.ok {
			t.Errorf("FirstImage(%q) = %q, %v; want %q, %v", tt.doc, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDescribe(t *testing.T) {
	long := strings.Repeat("A", 200)
	got := Describe(long)
	if utf8.RuneCountInString(got) > DescriptionLength || !strings.HasPrefix(got, "A") {
		t.Errorf("Describe(200×A) = %q (%d runes)", got, utf8.RuneCountInString(got))
	}

	words := strings.Repeat("lorem ipsum ", 20)
	got = Describe(words)
	if utf8.RuneCountInString(got) > DescriptionLength {
		t.Fatalf("too long: %d", utf8.RuneCountInString(got))
	}
	trimmed := strings.TrimSuffix(got, "…")
	if last := trimmed[strings.LastIndex(trimmed, " ")+1:]; last != "lorem" && last != "ipsum" {
		t.Errorf("cut inside a word: %q", got)
	}

	if got := Describe("  short\n\ntext "); got != "short text" {
		t.Errorf("Describe(short) = %q", got)
	}
}
