// Package frontmatter reads the YAML block that opens a Markdown document.
package frontmatter

import (
	"strconv"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// yamlFormat accepts only the "---" delimited YAML block.
var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// FrontMatter is an ordered, read-only mapping of top-level front matter keys.
type FrontMatter struct {
	keys   []string
	values map[string]Value
}

// Get returns the value stored under key.
func (fm FrontMatter) Get(key string) (Value, bool) {
	v, ok := fm.values[key]
	return v, ok
}

// Keys returns keys in document order.
func (fm FrontMatter) Keys() []string { return append([]string(nil), fm.keys...) }

// Len returns the number of keys.
func (fm FrontMatter) Len() int { return len(fm.keys) }

// IsEmpty reports whether no keys were parsed.
func (fm FrontMatter) IsEmpty() bool { return len(fm.keys) == 0 }

// Parse extracts front matter from the start of text. The opening "---" line
// must be the first line of text. A missing block, malformed YAML or a
// non-mapping root all yield an empty result.
func Parse(text string) FrontMatter {
	if !opensBlock(text) {
		return FrontMatter{}
	}
	var root yaml.Node
	if _, err := frontmatter.Parse(strings.NewReader(text), &root, yamlFormat); err != nil {
		return FrontMatter{}
	}
	return fromNode(&root)
}

// opensBlock reports whether the first line is the "---" delimiter, trailing
// blanks allowed. The parser library would otherwise skip leading whitespace.
func opensBlock(text string) bool {
	first, _, found := strings.Cut(text, "\n")
	return found && strings.TrimRight(first, " \t") == "---"
}

func fromNode(root *yaml.Node) FrontMatter {
	node := root
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return FrontMatter{}
		}
		node = node.Content[0]
	}
	node = resolveAlias(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return FrontMatter{}
	}

	fm := FrontMatter{values: make(map[string]Value, len(node.Content)/2)}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := resolveAlias(node.Content[i])
		if keyNode == nil || keyNode.Kind != yaml.ScalarNode {
			continue
		}
		val, ok := toValue(node.Content[i+1])
		if !ok {
			continue
		}
		key := keyNode.Value
		if _, dup := fm.values[key]; !dup {
			fm.keys = append(fm.keys, key)
		}
		fm.values[key] = val
	}
	return fm
}

func toValue(n *yaml.Node) (Value, bool) {
	n = resolveAlias(n)
	if n == nil {
		return Null(), true
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return scalar(n), true
	case yaml.SequenceNode:
		items := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			c = resolveAlias(c)
			if c == nil || c.Kind != yaml.ScalarNode || c.Tag == "!!null" {
				continue
			}
			items = append(items, c.Value)
		}
		return List(items...), true
	default:
		return Value{}, false
	}
}

func scalar(n *yaml.Node) Value {
	switch n.ShortTag() {
	case "!!null":
		return Null()
	case "!!bool":
		if b, err := strconv.ParseBool(strings.ToLower(n.Value)); err == nil {
			return Bool(b)
		}
	case "!!int", "!!float":
		if f, err := strconv.ParseFloat(strings.ReplaceAll(n.Value, "_", ""), 64); err == nil {
			return Number(f)
		}
	}
	return String(n.Value)
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}
