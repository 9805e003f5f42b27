package markup

import "strings"

var entities = map[string]string{
	"&amp;":  "&",
	"&lt;":   "<",
	"&gt;":   ">",
	"&quot;": `"`,
	"&#39;":  "'",
	"&apos;": "'",
	"&nbsp;": " ",
}

// longest entity in the table, "&nbsp;" / "&apos;" / "&quot;"
const maxEntityLen = 6

// DecodeEntities replaces the small entity set used by help-compiler output.
// Matching is case-insensitive and the pass is single: "&amp;lt;" becomes
// "&lt;", not "<". Unknown entities are left as written.
func DecodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '&' {
			b.WriteByte(s[i])
			i++
			continue
		}
		end := strings.IndexByte(s[i:], ';')
		if end < 0 || end+1 > maxEntityLen {
			b.WriteByte('&')
			i++
			continue
		}
		candidate := strings.ToLower(s[i : i+end+1])
		if repl, ok := entities[candidate]; ok {
			b.WriteString(repl)
			i += end + 1
			continue
		}
		b.WriteByte('&')
		i++
	}
	return b.String()
}
