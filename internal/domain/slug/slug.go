// Package slug turns post titles, including Chinese and mixed-script ones,
// into URL-safe slugs.
package slug

import (
	"crypto/md5" //nolint:gosec // short content fingerprint, not a security boundary
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	gosimple "github.com/gosimple/slug"
	"github.com/mozillazg/go-pinyin"
)

const (
	// Untitled is returned when a title yields no usable characters.
	Untitled = "untitled"
	// DefaultMaxLength applies when the caller passes a non-positive limit.
	DefaultMaxLength = 50

	hashLen = 6
)

var (
	disallowed  = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	nonSlug     = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphenRuns  = regexp.MustCompile(`-{2,}`)
	pinyinArgs  = pinyin.NewArgs()
	slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// Slugify converts title into a slug of at most maxLength characters.
// The output is a pure function of (title, maxLength).
func Slugify(title string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if strings.TrimSpace(title) == "" {
		return Untitled
	}

	cleaned := disallowed.ReplaceAllString(title, " ")
	var segments []string
	for _, token := range strings.Fields(cleaned) {
		segments = append(segments, tokenSegments(token)...)
	}

	s := strings.Join(segments, "-")
	s = nonSlug.ReplaceAllString(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > maxLength {
		s = truncate(s, title, maxLength)
	}
	if s == "" {
		return Untitled
	}
	return s
}

// Valid reports whether s has the shape Slugify produces.
func Valid(s string) bool {
	return s == Untitled || slugPattern.MatchString(s)
}

// tokenSegments splits a token into Han and non-Han runs. Each Han character
// becomes one pinyin syllable; other runs are transliterated as a whole.
func tokenSegments(token string) []string {
	var (
		segments []string
		run      []rune
		runIsHan bool
	)
	flush := func() {
		if len(run) == 0 {
			return
		}
		if runIsHan {
			for _, syllable := range pinyin.LazyPinyin(string(run), pinyinArgs) {
				if syllable = strings.ToLower(syllable); syllable != "" {
					segments = append(segments, syllable)
				}
			}
		} else if seg := gosimple.Make(strings.ReplaceAll(string(run), "_", "-")); seg != "" {
			segments = append(segments, seg)
		}
		run = run[:0]
	}

	for _, r := range token {
		isHan := unicode.Is(unicode.Han, r)
		if len(run) > 0 && isHan != runIsHan {
			flush()
		}
		runIsHan = isHan
		run = append(run, r)
	}
	flush()
	return segments
}

// truncate cuts s to leave room for a "-" plus a short hash of the original
// title, so distinct long titles sharing a prefix still differ.
func truncate(s, title string, maxLength int) string {
	sum := md5.Sum([]byte(title)) //nolint:gosec // fingerprint only
	hash := hex.EncodeToString(sum[:])[:hashLen]

	keep := maxLength - hashLen - 1
	if keep < 1 {
		if maxLength < hashLen {
			return hash[:maxLength]
		}
		return hash
	}
	head := strings.TrimRight(s[:keep], "-")
	if head == "" {
		return hash
	}
	return head + "-" + hash
}
