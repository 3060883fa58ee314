package keyword

import "strings"

// Merge joins keyword sources in precedence order: explicit keywords, then tags,
// then derived terms. An entry holding commas counts as several terms. Later
// duplicates (case-insensitive) are skipped and the result holds at most n
// terms, comma-joined.
func Merge(explicit, tags, derived []string, n int) string {
	if n <= 0 {
		return ""
	}
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for _, source := range [][]string{explicit, tags, derived} {
		for _, entry := range source {
			for _, term := range SplitList(entry) {
				if len(out) == n {
					return strings.Join(out, ",")
				}
				key := strings.ToLower(term)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				out = append(out, term)
			}
		}
	}
	return strings.Join(out, ",")
}

// SplitList splits a comma separated keyword string. Full-width commas
// count as separators too.
func SplitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '，' })
	out := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
