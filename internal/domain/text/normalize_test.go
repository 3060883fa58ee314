package text

import (
	"strings"
	"testing"
)

func TestRemoveCodeBlocks(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```python\nprint('hello')\n```", ""},
		{"~~~\ncode block\n~~~", ""},
		{"`x`", "x"},
		{"`inline code`", "inline code"},
		{"<pre><code>HTML code</code></pre>", ""},
		{"<CODE>uppercase</CODE>", "uppercase"},
		{"<code>inline html code</code>", "inline html code"},
		{"Text before ```code``` text after", "Text before  text after"},
		{"`code1` and `code2`", "code1 and code2"},
		{"No code here", "No code here"},
		{"Mixed: text ```code``` more text `inline`", "Mixed: text  more text inline"},
		{"Nested: <pre>```markdown```</pre>", "Nested:"},
		{"Multiple:\n```one```\ntext\n~~~two~~~", "Multiple:\n\ntext"},
		{"With language: ```python\ndef foo():\n    pass\n```", "With language:"},
		{"Backticks in text: here are some ``` in text", "Backticks in text: here are some ``` in text"},
		{"Empty code block: ```\n```", "Empty code block:"},
		{"<pre>\n  <code>\n    nested\n  </code>\n</pre>", ""},
		{"keep <code>\nmulti\nline\n</code> out", "keep  out"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := RemoveCodeBlocks(tt.in); got != tt.want {
				t.Errorf("RemoveCodeBlocks(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRemoveMarkdown(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"# Header", "Header"},
		{"### Level 3", "Level 3"},
		{"**bold**", "bold"},
		{"__bold__", "bold"},
		{"*italic*", "italic"},
		{"_italic_", "italic"},
		{"***bold italic***", "bold italic"},
		{"___bold italic___", "bold italic"},
		{"`inline code`", "inline code"},
		{"~~strikethrough~~", "strikethrough"},
		{"[link text](https://example.com)", "link text"},
		{"![alt text](image.jpg)", ""},
		{"---\ntitle: test\n---\ncontent", "content"},
		{"**bold** and `code` and *italic*", "bold and code and italic"},
		{"- List item 1\n- List item 2", "List item 1\nList item 2"},
		{"1. Ordered 1\n2. Ordered 2", "Ordered 1\nOrdered 2"},
		{"> Blockquote text", "Blockquote text"},
		{"```python\nprint('hello')\n```", ""},
		{"    indented code", ""},
		{"\tindented with tab", "indented with tab"},
		{"---\nHorizontal rule\n***", "Horizontal rule"},
		{"Nested **bold *italic*** text", "Nested bold italic text"},
		{"[link](url) and ![image](img.jpg)", "link and"},
		{"# Header with `code` and **bold**", "Header with code and bold"},
		{"Euler $e^{i\\pi}$ identity", "Euler  identity"},
		{"before $$\\sum x$$ after", "before  after"},
		{"a \\[x^2\\] b \\(y\\) c", "a  b  c"},
		{"snake_case_name stays", "snake_case_name stays"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := RemoveMarkdown(tt.in); got != tt.want {
				t.Errorf("RemoveMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRemoveHTMLTags(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<p>A</p>", "A"},
		{"<div><p>A</p></div>", "A"},
		{"<p>Hello World</p>", "Hello World"},
		{"<div><span>Text</span></div>", "Text"},
		{"No tags here", "No tags here"},
		{"<img src='test.jpg'>", ""},
		{"<a href='#'>Link</a>", "Link"},
		{"<p>Hello <strong>World</strong></p>", "Hello World"},
		{"Self-closing: <br/> test", "Self-closing:  test"},
		{"Multiple: <p>one</p><p>two</p>", "Multiple: onetwo"},
		{"Nested: <div><p><span>deep</span></p></div>", "Nested: deep"},
		{"Script tag: <script>alert('xss')</script>", "Script tag: "},
		{"Style tag: <style>body {color: red;}</style>", "Style tag: "},
		{"Comment: <!-- comment -->text", "Comment: text"},
		{"Multiple comments: <!-- one -->text<!-- two -->", "Multiple comments: text"},
		{"<p>Hello<br />World</p>", "HelloWorld"},
		{"Unclosed tag: <p>text", "Unclosed tag: text"},
		{"Multiple lines: <div>\n  <p>text</p>\n</div>", "Multiple lines: \n  text\n"},
		{"Doctype: <!DOCTYPE html><html>text</html>", "Doctype: text"},
		{"Mixed case: <DIV>text</DIV>", "Mixed case: text"},
		{"a &amp; b", "a &amp; b"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := RemoveHTMLTags(tt.in); got != tt.want {
				t.Errorf("RemoveHTMLTags(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTransformationsAreIdempotent(t *testing.T) {
	inputs := []string{
		"``x``",
		"<<p>p>text</p>",
		"**__nested__**",
		"# Title\n\n> quote with [link](u) and ![img](i.png)\n\n```go\nx := 1\n```\n",
		"<div><script>var a = '<p>';</script>kept</div>",
		"~~~\nunterminated",
	}
	transforms := map[string]func(string) string{
		"RemoveCodeBlocks": RemoveCodeBlocks,
		"RemoveMarkdown":   RemoveMarkdown,
		"RemoveHTMLTags":   RemoveHTMLTags,
	}
	for name, fn := range transforms {
		for _, in := range inputs {
			once := fn(in)
			if twice := fn(once); twice != once {
				t.Errorf("%s not idempotent on %q: %q then %q", name, in, once, twice)
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	doc := "---\ntitle: x\n---\n# Intro\n\nSome **bold** text with `code`.\n\n```go\nfunc main() {}\n```\n\n<p>Closing <em>words</em></p>"
	got := Normalize(doc)

	for _, unwanted := range []string{"---", "#", "**", "`", "<p>", "func main"} {
		if strings.Contains(got, unwanted) {
			t.Errorf("normalized text still contains %q: %q", unwanted, got)
		}
	}
	for _, wanted := range []string{"Intro", "Some bold text with code.", "Closing words"} {
		if !strings.Contains(got, wanted) {
			t.Errorf("normalized text lost %q: %q", wanted, got)
		}
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if got := CollapseWhitespace("  a \n\t b  "); got != "a b" {
		t.Errorf("got %q", got)
	}
}
