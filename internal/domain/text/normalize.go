// Package text strips Markdown, code and HTML from post bodies to get plain text
// for keyword and description derivation.
package text

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// maxPasses bounds the fixpoint loop. Each pass only deletes markup, so real
// documents settle in two or three passes.
const maxPasses = 8

var (
	fencedBacktick = regexp.MustCompile("```[\\s\\S]*?```")
	fencedTilde    = regexp.MustCompile(`~~~[\s\S]*?~~~`)
	inlineCode     = regexp.MustCompile("`+([^`]+)`+")
	preElement     = regexp.MustCompile(`(?is)<pre\b[^>]*>.*?</pre\s*>`)
	codeElement    = regexp.MustCompile(`(?is)<code\b[^>]*>(.*?)</code\s*>`)

	frontMatterBlock = regexp.MustCompile(`\A---[ \t]*\n[\s\S]*?\n---[ \t]*(?:\n|\z)`)
	indentedCode     = regexp.MustCompile(`(?m)^ {4,}\S.*$`)
	horizontalRule   = regexp.MustCompile(`(?m)^[ \t]*(?:[-*_][ \t]*){3,}$`)
	header           = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]*`)
	blockquote       = regexp.MustCompile(`(?m)^[ \t]*(?:>[ \t]?)+`)
	listMarker       = regexp.MustCompile(`(?m)^[ \t]*(?:[-*+]|\d+[.)])[ \t]+`)
	image            = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	link             = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	blockMath        = regexp.MustCompile(`\$\$[\s\S]*?\$\$`)
	bracketMath      = regexp.MustCompile(`\\\[[\s\S]*?\\\]`)
	parenMath        = regexp.MustCompile(`\\\([\s\S]*?\\\)`)
	inlineMath       = regexp.MustCompile(`\$[^$\n]+?\$`)
	strongEmphStar   = regexp.MustCompile(`\*\*\*(.+?)\*\*\*`)
	strongStar       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	emphStar         = regexp.MustCompile(`\*([^*\n]+?)\*`)
	strike           = regexp.MustCompile(`~~([^~\n]+?)~~`)
	underscoreEmph   = []*regexp.Regexp{
		regexp.MustCompile(`(^|[^\p{L}\p{N}_])___([^_\n]+?)___($|[^\p{L}\p{N}_])`),
		regexp.MustCompile(`(^|[^\p{L}\p{N}_])__([^_\n]+?)__($|[^\p{L}\p{N}_])`),
		regexp.MustCompile(`(^|[^\p{L}\p{N}_])_([^_\n]+?)_($|[^\p{L}\p{N}_])`),
	}
	whitespace = regexp.MustCompile(`\s+`)
)

// RemoveCodeBlocks drops fenced blocks and <pre> elements and unwraps inline code.
// Single-line <code> elements keep their text, multi-line ones are dropped.
func RemoveCodeBlocks(s string) string {
	return fixpoint(s, removeCodeBlocksOnce)
}

func removeCodeBlocksOnce(s string) string {
	s = fencedBacktick.ReplaceAllString(s, "")
	s = fencedTilde.ReplaceAllString(s, "")
	s = inlineCode.ReplaceAllString(s, "$1")
	s = preElement.ReplaceAllString(s, "")
	s = codeElement.ReplaceAllStringFunc(s, func(m string) string {
		inner := codeElement.FindStringSubmatch(m)[1]
		if strings.Contains(inner, "\n") {
			return ""
		}
		return inner
	})
	return strings.TrimSpace(s)
}

// RemoveMarkdown strips Markdown syntax down to readable text. Links keep their
// label; images and math are dropped.
func RemoveMarkdown(s string) string {
	return fixpoint(s, removeMarkdownOnce)
}

func removeMarkdownOnce(s string) string {
	s = frontMatterBlock.ReplaceAllString(s, "")
	s = fencedBacktick.ReplaceAllString(s, "")
	s = fencedTilde.ReplaceAllString(s, "")
	s = indentedCode.ReplaceAllString(s, "")
	s = horizontalRule.ReplaceAllString(s, "")
	s = header.ReplaceAllString(s, "")
	s = blockquote.ReplaceAllString(s, "")
	s = listMarker.ReplaceAllString(s, "")
	s = image.ReplaceAllString(s, "")
	s = link.ReplaceAllString(s, "$1")
	s = blockMath.ReplaceAllString(s, "")
	s = bracketMath.ReplaceAllString(s, "")
	s = parenMath.ReplaceAllString(s, "")
	s = inlineMath.ReplaceAllString(s, "")
	s = inlineCode.ReplaceAllString(s, "$1")
	s = strongEmphStar.ReplaceAllString(s, "$1")
	s = strongStar.ReplaceAllString(s, "$1")
	s = emphStar.ReplaceAllString(s, "$1")
	for _, re := range underscoreEmph {
		s = re.ReplaceAllString(s, "$1$2$3")
	}
	s = strike.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

// RemoveHTMLTags keeps text nodes and drops tags, comments, doctypes and the
// bodies of <script> and <style>. Entities are left as written.
func RemoveHTMLTags(s string) string {
	return fixpoint(s, removeHTMLTagsOnce)
}

func removeHTMLTagsOnce(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var out bytes.Buffer
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a tokenizer error; either way the text so far is all we get.
			return out.String()
		case html.TextToken:
			if skip == 0 {
				out.Write(z.Raw())
			}
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawTextTag(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawTextTag(name) && skip > 0 {
				skip--
			}
		}
	}
}

func isRawTextTag(name []byte) bool {
	return bytes.Equal(name, []byte("script")) || bytes.Equal(name, []byte("style"))
}

// Normalize runs code removal, Markdown stripping and HTML stripping in that
// order and trims the result.
func Normalize(s string) string {
	s = RemoveCodeBlocks(s)
	s = RemoveMarkdown(s)
	s = RemoveHTMLTags(s)
	return strings.TrimSpace(s)
}

// CollapseWhitespace folds every whitespace run into a single space.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

func fixpoint(s string, pass func(string) string) string {
	for range maxPasses {
		next := pass(s)
		if next == s {
			return next
		}
		s = next
	}
	return s
}
