// Package markup scans and strips the loosely HTML-shaped markup stored in
// compiled-help archives. Nothing in here validates markup: every function
// degrades to a best-effort result, and the only failure is bytes that
// cannot be decoded as text at all.
package markup

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	apperrors "github.com/Adithya-Monish-Kumar-K/CHM-Help-Viewer/pkg/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Encoding names the text encoding DecodeText settled on.
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1252 Encoding = "windows-1252"
)

// DecodeText converts raw archive bytes to a string. UTF-8 is tried first;
// anything that is not valid UTF-8 is read as Windows-1252, the code page the
// legacy help compiler wrote for Western locales. If neither applies the
// result wraps ErrInvalidData.
func DecodeText(data []byte) (string, Encoding, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), EncodingUTF8, nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", fmt.Errorf("decoding windows-1252: %w", apperrors.ErrInvalidData)
	}
	if !utf8.Valid(decoded) {
		return "", "", fmt.Errorf("decoded text is not valid: %w", apperrors.ErrInvalidData)
	}
	return string(decoded), EncodingWindows1252, nil
}

// DetectEncoding reports which encoding DecodeText would pick without
// allocating the decoded string.
func DetectEncoding(data []byte) Encoding {
	if utf8.Valid(bytes.TrimPrefix(data, utf8BOM)) {
		return EncodingUTF8
	}
	return EncodingWindows1252
}
