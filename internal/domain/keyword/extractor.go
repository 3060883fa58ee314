// Package keyword derives salient terms from plain text and merges them with
// author-supplied keywords and tags.
package keyword

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/registry"
)

// DefaultCount is the number of keywords kept when the caller does not say.
const DefaultCount = 5

// chineseStop holds high-frequency bigrams the CJK analyzer emits that carry no topic.
var chineseStop = map[string]struct{}{
	"我们": {}, "你们": {}, "他们": {}, "这个": {}, "那个": {}, "一个": {}, "可以": {},
	"没有": {}, "什么": {}, "因为": {}, "所以": {}, "但是": {}, "如果": {}, "就是": {},
	"已经": {}, "不是": {}, "自己": {}, "这样": {}, "还是": {}, "这些": {}, "那些": {},
	"的": {}, "了": {}, "是": {}, "在": {}, "和": {}, "也": {}, "有": {}, "就": {},
}

// Extractor ranks terms of a text. Safe for concurrent use; the analyzer is
// built once and only read afterwards.
type Extractor struct {
	analyzer analysis.Analyzer
	stop     analysis.TokenMap
}

// NewExtractor builds the CJK analyzer and the English stop list.
func NewExtractor() (*Extractor, error) {
	cache := registry.NewCache()
	analyzer, err := cache.AnalyzerNamed(cjk.AnalyzerName)
	if err != nil {
		return nil, fmt.Errorf("build cjk analyzer: %w", err)
	}
	stop, err := cache.TokenMapNamed(en.StopName)
	if err != nil {
		return nil, fmt.Errorf("load english stop words: %w", err)
	}
	return &Extractor{analyzer: analyzer, stop: stop}, nil
}

type termStat struct {
	term  string
	count int
	first int
	score float64
}

// Extract returns up to n terms ordered by tf * (1 + ln(runeLen)).
// Ties keep first-occurrence order. Empty text yields nil.
func (e *Extractor) Extract(text string, n int) []string {
	if n <= 0 || strings.TrimSpace(text) == "" {
		return nil
	}

	stats := make(map[string]*termStat)
	var order []*termStat
	for i, tok := range e.analyzer.Analyze([]byte(text)) {
		term := string(tok.Term)
		if !e.keep(term, tok.Type) {
			continue
		}
		st, ok := stats[term]
		if !ok {
			st = &termStat{term: term, first: i}
			stats[term] = st
			order = append(order, st)
		}
		st.count++
	}

	for _, st := range order {
		st.score = float64(st.count) * (1 + math.Log(float64(utf8.RuneCountInString(st.term))))
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].score > order[j].score })

	if len(order) > n {
		order = order[:n]
	}
	terms := make([]string, len(order))
	for i, st := range order {
		terms[i] = st.term
	}
	return terms
}

func (e *Extractor) keep(term string, typ analysis.TokenType) bool {
	if term == "" || typ == analysis.Numeric || isNumber(term) {
		return false
	}
	if _, ok := e.stop[term]; ok {
		return false
	}
	if _, ok := chineseStop[term]; ok {
		return false
	}
	if typ != analysis.Ideographic && utf8.RuneCountInString(term) < 2 {
		return false
	}
	return true
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return false
		}
	}
	return true
}
