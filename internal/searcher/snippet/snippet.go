// Package snippet cuts a short excerpt of a page's plain text around the
// first occurrence of a query.
package snippet

import (
	"strings"
	"unicode"
)

const (
	// Before is how many characters of context precede the match.
	Before = 40
	// Width is the maximum excerpt length in characters, markers excluded.
	Width = 120
	// Ellipsis marks text cut from either end of the excerpt.
	Ellipsis = "..."
)

// Generate returns an excerpt of text around the first case-insensitive
// occurrence of the whole query. The window starts Before characters ahead
// of the match and spans at most Width characters; Ellipsis is added on each
// side where text was cut. When the query does not occur as written, the
// first Width characters are returned without markers.
func Generate(text, query string) string {
	runes := []rune(text)
	needle := []rune(strings.TrimSpace(query))

	at := indexFold(runes, needle)
	if at < 0 {
		if len(runes) > Width {
			return string(runes[:Width])
		}
		return text
	}

	start := max(0, at-Before)
	end := min(len(runes), start+Width)
	var b strings.Builder
	if start > 0 {
		b.WriteString(Ellipsis)
	}
	b.WriteString(string(runes[start:end]))
	if end < len(runes) {
		b.WriteString(Ellipsis)
	}
	return b.String()
}

// indexFold finds needle in haystack comparing runes case-insensitively, and
// returns the rune offset of the first match or -1. An empty needle never
// matches.
func indexFold(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if equalFoldAt(haystack[i:], needle) {
			return i
		}
	}
	return -1
}

func equalFoldAt(s, needle []rune) bool {
	for j, r := range needle {
		if unicode.ToLower(s[j]) != unicode.ToLower(r) {
			return false
		}
	}
	return true
}
