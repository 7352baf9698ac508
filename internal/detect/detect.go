// Package detect resolves document media types from content bytes.
package detect

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/docpipe/docpipe/internal/streamio"
)

// Detector sniffs media types with github.com/gabriel-vasile/mimetype.
// A caller-supplied hint always wins; sniffing only fills the gap.
type Detector struct{}

// New creates a content type detector.
func New() *Detector {
	return &Detector{}
}

// Detect returns the media type for the stream. The hint, when present,
// is normalized and returned as-is. The stream is rewound before and
// after sniffing.
func (d *Detector) Detect(s *streamio.CachedStream, hint string) (string, error) {
	if hint != "" {
		if mt, _, err := mime.ParseMediaType(hint); err == nil {
			return mt, nil
		}
		return strings.ToLower(strings.TrimSpace(hint)), nil
	}

	if err := s.Rewind(); err != nil {
		return "", err
	}
	mt, err := mimetype.DetectReader(s)
	if err != nil {
		return "", fmt.Errorf("sniff content type: %w", err)
	}
	if err := s.Rewind(); err != nil {
		return "", err
	}

	media, _, splitErr := mime.ParseMediaType(mt.String())
	if splitErr != nil {
		return mt.String(), nil
	}
	return media, nil
}

// ByExtension maps a filename extension to a media type, "" if unknown.
// Used as a cheap fallback when content sniffing is not wanted.
func ByExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return "text/plain"
	case ".md", ".markdown":
		return "text/markdown"
	case ".csv":
		return "text/csv"
	case ".html", ".htm":
		return "text/html"
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return ""
	}
}
