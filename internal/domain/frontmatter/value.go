package frontmatter

import (
	"strconv"
	"strings"
)

// Kind is the type tag of a front matter value.
type Kind uint8

// Value kinds. Nested mappings are not representable and never surface.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a scalar or a list of strings from a front matter block.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	list []string
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a number.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// List wraps a list of strings.
func List(items ...string) Value {
	return Value{kind: KindList, list: append([]string(nil), items...)}
}

// Kind returns the value's type tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Text renders a scalar as a string. Lists and null report false.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindString:
		return v.s, true
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64), true
	case KindBool:
		return strconv.FormatBool(v.b), true
	default:
		return "", false
	}
}

// First returns the first non-blank string the value holds:
// the scalar itself, or the first non-blank list item.
func (v Value) First() (string, bool) {
	if v.kind == KindList {
		for _, item := range v.list {
			if strings.TrimSpace(item) != "" {
				return item, true
			}
		}
		return "", false
	}
	s, ok := v.Text()
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// Strings returns list items as-is and promotes a scalar to a one-element list.
func (v Value) Strings() []string {
	if v.kind == KindList {
		return append([]string(nil), v.list...)
	}
	if s, ok := v.Text(); ok {
		return []string{s}
	}
	return nil
}
