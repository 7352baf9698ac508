package parser

import (
	"path/filepath"
	"strings"
)

// baseTitle derives a human-readable default title from a document
// reference: the base name without its extension.
func baseTitle(ref string) string {
	base := filepath.Base(ref)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." {
		return ref
	}
	return base
}
