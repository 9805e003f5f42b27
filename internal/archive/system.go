package archive

import (
	"context"
	"encoding/binary"
	"path"
	"strings"
)

const (
	systemPath = "/#SYSTEM"
	// record code carrying the default topic in the #SYSTEM metadata file
	systemDefaultTopic = 2
)

var defaultPageCandidates = []string{"/index.htm", "/index.html", "/default.htm", "/default.html"}

// FindTOCPath returns the first entry with a .hhc extension, the archive's
// table of contents, or "" if there is none.
func FindTOCPath(entries []Entry) string {
	for _, e := range entries {
		if strings.HasSuffix(strings.ToLower(e.Path), ".hhc") {
			return e.Path
		}
	}
	return ""
}

// FindDefaultPage returns the page the archive asks to open first. The
// #SYSTEM metadata file wins; otherwise the usual index/default names are
// probed. "" means the caller should pick a page itself.
func FindDefaultPage(ctx context.Context, r Reader) string {
	if data, err := r.ReadEntry(ctx, systemPath); err == nil {
		if page := ParseSystemDefaultTopic(data); page != "" {
			return page
		}
	}
	for _, candidate := range defaultPageCandidates {
		if _, err := r.ReadEntry(ctx, candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// ParseSystemDefaultTopic reads the default-topic record from #SYSTEM bytes.
// The file is a 4-byte version followed by records of little-endian uint16
// code, uint16 length, then length bytes of payload.
func ParseSystemDefaultTopic(data []byte) string {
	if len(data) <= 4 {
		return ""
	}
	offset := 4
	for offset+4 <= len(data) {
		code := binary.LittleEndian.Uint16(data[offset : offset+2])
		length := int(binary.LittleEndian.Uint16(data[offset+2 : offset+4]))
		offset += 4
		if offset+length > len(data) {
			return ""
		}
		if code == systemDefaultTopic {
			topic := strings.Trim(string(data[offset:offset+length]), "\x00")
			if topic == "" {
				return ""
			}
			return NormalizePath(topic)
		}
		offset += length
	}
	return ""
}

var mimeTypes = map[string]string{
	".htm":  "text/html",
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".xml":  "application/xml",
	".txt":  "text/plain",
}

// MIMEType maps an entry path to the content type it is served with.
func MIMEType(p string) string {
	if t, ok := mimeTypes[strings.ToLower(path.Ext(p))]; ok {
		return t
	}
	return "application/octet-stream"
}
