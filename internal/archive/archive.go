// Package archive defines the contract between the viewer and the
// compiled-help container reader, plus the entry helpers shared by the TOC
// loader and the index builder. Decoding the container itself happens
// elsewhere; readers here serve entries that are already extracted.
package archive

import (
	"context"
	"path"
	"strings"
)

// Entry is one logical file inside an archive.
type Entry struct {
	Path   string
	Length int64
}

// IsPageLike reports whether the entry is an HTML page worth indexing. The
// check is the extension heuristic the help compiler's own tooling uses.
func (e Entry) IsPageLike() bool {
	return IsPageLike(e.Path)
}

// Filename returns the final path segment.
func (e Entry) Filename() string {
	return path.Base(e.Path)
}

// IsPageLike reports whether p ends in .htm or .html, ignoring case.
func IsPageLike(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasSuffix(lower, ".htm") || strings.HasSuffix(lower, ".html")
}

// Reader resolves logical archive paths to raw bytes. Implementations may
// block on I/O; callers pass a context for cancellation.
type Reader interface {
	// ListEntries returns every file entry in the archive.
	ListEntries(ctx context.Context) ([]Entry, error)
	// ReadEntry returns the bytes stored at p. Missing entries wrap
	// ErrEntryNotFound; I/O or decompression failures wrap
	// ErrExtractionFailed.
	ReadEntry(ctx context.Context, p string) ([]byte, error)
}

// NormalizePath roots p at "/" and cleans it, so "docs/../a.htm" and
// "/a.htm" name the same entry.
func NormalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
