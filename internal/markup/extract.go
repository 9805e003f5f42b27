package markup

import (
	"regexp"
	"strings"
)

var (
	titleTag    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	blockOpen   = regexp.MustCompile(`(?i)<(script|style)\b[^>]*>`)
	scriptClose = regexp.MustCompile(`(?i)</script>`)
	styleClose  = regexp.MustCompile(`(?i)</style>`)
	allTags     = regexp.MustCompile(`<[^>]+>`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// Page is the searchable content of one archive entry.
type Page struct {
	Title    string
	Text     string
	Encoding Encoding
}

// ExtractPage decodes raw entry bytes and extracts title and plain text.
// Only the decode step can fail.
func ExtractPage(data []byte) (Page, error) {
	html, enc, err := DecodeText(data)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Title:    ExtractTitle(html),
		Text:     ExtractText(html),
		Encoding: enc,
	}, nil
}

// ExtractTitle returns the trimmed contents of the first <title> element, or
// "" when there is none.
func ExtractTitle(html string) string {
	m := titleTag.FindStringSubmatch(html)
	if m == nil {
		return ""
	}
	title := DecodeEntities(m[1])
	return strings.TrimSpace(whitespace.ReplaceAllString(title, " "))
}

// ExtractText strips markup from html and returns its prose on a single line.
// Script and style bodies are dropped before any other tag is removed.
func ExtractText(html string) string {
	text := removeBlocks(html)
	text = allTags.ReplaceAllString(text, " ")
	text = DecodeEntities(text)
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// removeBlocks deletes <script>...</script> and <style>...</style> spans. The
// closer has to name the same element as the opener; an opener with no
// matching closer is left for the general tag stripper.
func removeBlocks(html string) string {
	var b strings.Builder
	rest := html
	for {
		loc := blockOpen.FindStringSubmatchIndex(rest)
		if loc == nil {
			b.WriteString(rest)
			return b.String()
		}
		closer := scriptClose
		if strings.EqualFold(rest[loc[2]:loc[3]], "style") {
			closer = styleClose
		}
		body := rest[loc[1]:]
		end := closer.FindStringIndex(body)
		if end == nil {
			b.WriteString(rest[:loc[1]])
			rest = body
			continue
		}
		b.WriteString(rest[:loc[0]])
		b.WriteByte(' ')
		rest = body[end[1]:]
	}
}
