package markup

import (
	"regexp"
	"strings"
)

var attrPattern = regexp.MustCompile(`(\w+)\s*=\s*"([^"]*)"`)

// ParseAttributes extracts double-quoted name="value" pairs from raw tag
// text. Keys are lowercased, values kept verbatim. Unquoted or single-quoted
// attributes are skipped; when a key repeats the last value wins.
func ParseAttributes(raw string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attrPattern.FindAllStringSubmatch(raw, -1) {
		attrs[strings.ToLower(m[1])] = m[2]
	}
	return attrs
}
