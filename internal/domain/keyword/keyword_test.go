package keyword

import (
	"reflect"
	"strings"
	"testing"
)

func newExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := NewExtractor()
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	return e
}

func TestExtract_RanksByFrequencyAndLength(t *testing.T) {
	e := newExtractor(t)
	got := e.Extract("Redis redis redis and the cache, cache. Golang 2024", 3)
	want := []string{"redis", "cache", "golang"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestExtract_Chinese(t *testing.T) {
	e := newExtractor(t)
	got := e.Extract("缓存设计。缓存失效。", 2)
	if len(got) == 0 || got[0] != "缓存" {
		t.Errorf("expected 缓存 to rank first, got %v", got)
	}
}

func TestExtract_EmptyAndShort(t *testing.T) {
	e := newExtractor(t)
	for _, text := range []string{"", "   ", "a", "42"} {
		if got := e.Extract(text, 5); len(got) != 0 {
			t.Errorf("Extract(%q) = %v, want none", text, got)
		}
	}
	if got := e.Extract("plenty of words here", 0); got != nil {
		t.Errorf("n=0 should yield nil, got %v", got)
	}
}

func TestExtract_NeverExceedsN(t *testing.T) {
	e := newExtractor(t)
	text := "alpha beta gamma delta epsilon zeta theta iota kappa lambda"
	for n := 1; n <= 6; n++ {
		if got := e.Extract(text, n); len(got) > n {
			t.Errorf("n=%d returned %d terms", n, len(got))
		}
	}
}

func TestMerge_Precedence(t *testing.T) {
	got := Merge([]string{"kw1", "kw2"}, []string{"tag1", "KW1"}, []string{"derived", "tag1"}, 3)
	if got != "kw1,kw2,tag1" {
		t.Errorf("Merge = %q", got)
	}
}

func TestMerge_ExplicitAlwaysLeads(t *testing.T) {
	derived := []string{"golang", "redis", "cache"}
	for n := 1; n <= 5; n++ {
		got := Merge([]string{"pinned"}, nil, derived, n)
		terms := strings.Split(got, ",")
		if terms[0] != "pinned" {
			t.Errorf("n=%d: explicit keyword not first: %q", n, got)
		}
		if len(terms) > n {
			t.Errorf("n=%d: got %d terms", n, len(terms))
		}
	}
}

func TestMerge_CommaEntriesCountPerTerm(t *testing.T) {
	tests := []struct {
		explicit, tags []string
		want           string
	}{
		{[]string{"go,redis", "cache"}, nil, "go,redis"},
		{nil, []string{"go, rust"}, "go,rust"},
		{[]string{"a ，b"}, []string{"c"}, "a,b"},
	}
	for _, tt := range tests {
		got := Merge(tt.explicit, tt.tags, []string{"golang"}, 2)
		if got != tt.want {
			t.Errorf("Merge(%q, %q) = %q, want %q", tt.explicit, tt.tags, got, tt.want)
		}
		if terms := strings.Split(got, ","); len(terms) > 2 {
			t.Errorf("Merge(%q, %q) has %d terms", tt.explicit, tt.tags, len(terms))
		}
	}
}

func TestMerge_Empty(t *testing.T) {
	if got := Merge(nil, nil, nil, 5); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
	if got := Merge([]string{"a"}, nil, nil, 0); got != "" {
		t.Errorf("expected empty string for n=0, got %q", got)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" go, redis ，缓存,, ")
	want := []string{"go", "redis", "缓存"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitList = %v, want %v", got, want)
	}
}
