package markup

import (
	"iter"
	"strings"
	"unicode"
)

// Tag is one `<...>` boundary found by ScanTags.
type Tag struct {
	// Raw is the trimmed text between '<' and '>', attributes included.
	Raw string
	// Name is the lowercased tag name, keeping a leading '/' on closers.
	Name string
}

// HasPrefix reports whether the lowercased raw tag text starts with prefix.
// The help compiler's TOC vocabulary is matched this way, so "ul" also
// matches "UL" and "ul class=x".
func (t Tag) HasPrefix(prefix string) bool {
	return len(t.Raw) >= len(prefix) && strings.EqualFold(t.Raw[:len(prefix)], prefix)
}

// ScanTags returns the tags of s in document order. Text between tags is
// discarded. A '<' with no closing '>' ends the sequence. The sequence can be
// ranged over any number of times; every range rescans s from the start.
func ScanTags(s string) iter.Seq[Tag] {
	return func(yield func(Tag) bool) {
		rest := s
		for {
			open := strings.IndexByte(rest, '<')
			if open < 0 {
				return
			}
			rest = rest[open+1:]
			end := strings.IndexByte(rest, '>')
			if end < 0 {
				return
			}
			raw := strings.TrimSpace(rest[:end])
			rest = rest[end+1:]
			if !yield(Tag{Raw: raw, Name: tagName(raw)}) {
				return
			}
		}
	}
}

// CollectTags drains ScanTags into a slice.
func CollectTags(s string) []Tag {
	var tags []Tag
	for tag := range ScanTags(s) {
		tags = append(tags, tag)
	}
	return tags
}

func tagName(raw string) string {
	end := strings.IndexFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || r == '>'
	})
	if end < 0 {
		end = len(raw)
	}
	return strings.ToLower(raw[:end])
}
