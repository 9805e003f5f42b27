package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/errors"
)

// DirReader serves an archive that has already been unpacked to a
// directory, one file per entry.
type DirReader struct {
	root string
}

// OpenDir returns a DirReader rooted at dir. The directory must exist.
func OpenDir(dir string) (*DirReader, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving archive root %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("opening archive root %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("archive root %s is not a directory: %w", dir, apperrors.ErrInvalidInput)
	}
	return &DirReader{root: abs}, nil
}

// Root returns the absolute directory backing the reader.
func (d *DirReader) Root() string {
	return d.root
}

func (d *DirReader) ListEntries(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(d.root, func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if de.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		info, err := de.Info()
		if err != nil {
			return err
		}
		entries = append(entries, Entry{
			Path:   NormalizePath(filepath.ToSlash(rel)),
			Length: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing archive %s: %w", d.root, err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

func (d *DirReader) ReadEntry(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := NormalizePath(p)
	full := filepath.Join(d.root, filepath.FromSlash(clean))
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", clean, apperrors.ErrEntryNotFound)
		}
		return nil, fmt.Errorf("reading %s: %v: %w", clean, err, apperrors.ErrExtractionFailed)
	}
	return data, nil
}
