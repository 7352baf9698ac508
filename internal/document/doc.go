// Package document defines the unit of work flowing through the import
// pipeline: identity and ancestry, ordered multi-valued metadata, and a
// re-readable content stream.
package document

import (
	"strconv"

	"github.com/docpipe/docpipe/internal/streamio"
)

// DocInfo carries a document's identity and split ancestry.
type DocInfo struct {
	Reference       string
	ContentType     string
	ContentEncoding string

	// EmbeddedIndex is the zero-based position among siblings produced
	// by the same split; 0 for root documents.
	EmbeddedIndex int

	// Ancestors lists ancestor references from root to immediate
	// parent; empty for root documents.
	Ancestors []string
}

// NewDocInfo creates the info for a root document.
func NewDocInfo(reference string) *DocInfo {
	return &DocInfo{Reference: reference}
}

// ChildInfo derives the info for a child split out of parent at the
// given embedded index. The child's ancestry is the parent's ancestry
// plus the parent itself.
func ChildInfo(parent *DocInfo, reference string, index int) *DocInfo {
	ancestors := make([]string, 0, len(parent.Ancestors)+1)
	ancestors = append(ancestors, parent.Ancestors...)
	ancestors = append(ancestors, parent.Reference)
	return &DocInfo{
		Reference:     reference,
		EmbeddedIndex: index,
		Ancestors:     ancestors,
	}
}

// AdoptChild rebinds a splitter-produced child info under the parent's
// ancestry, assigning its embedded index. The child keeps its own
// reference and content type hints.
func AdoptChild(parent, child *DocInfo, index int) *DocInfo {
	adopted := ChildInfo(parent, child.Reference, index)
	adopted.ContentType = child.ContentType
	adopted.ContentEncoding = child.ContentEncoding
	return adopted
}

// Doc is one in-flight document. It owns exactly one content stream at
// a time; replacing it disposes the previous one.
type Doc struct {
	Info    *DocInfo
	Meta    *Metadata
	content *streamio.CachedStream
}

// New assembles a document. A nil meta gets an empty metadata map.
func New(info *DocInfo, meta *Metadata, content *streamio.CachedStream) *Doc {
	if meta == nil {
		meta = NewMetadata()
	}
	return &Doc{Info: info, Meta: meta, content: content}
}

// Reference returns the document's unique reference.
func (d *Doc) Reference() string {
	return d.Info.Reference
}

// Content returns the current content stream.
func (d *Doc) Content() *streamio.CachedStream {
	return d.content
}

// SetContent makes s the canonical content, disposing the old stream.
func (d *Doc) SetContent(s *streamio.CachedStream) {
	if d.content != nil && d.content != s {
		d.content.Dispose()
	}
	d.content = s
}

// Dispose releases the content stream. Idempotent.
func (d *Doc) Dispose() {
	if d.content != nil {
		d.content.Dispose()
		d.content = nil
	}
}

// StampIdentity mirrors the document's identity and ancestry into its
// metadata so metadata-only handlers can see them.
func (d *Doc) StampIdentity() {
	d.Meta.Set(FieldReference, d.Info.Reference)
	if d.Info.ContentType != "" {
		d.Meta.Set(FieldContentType, d.Info.ContentType)
	}
	if d.Info.ContentEncoding != "" {
		d.Meta.Set(FieldContentEncoding, d.Info.ContentEncoding)
	}
	if len(d.Info.Ancestors) > 0 {
		d.Meta.Set(FieldAncestorRefs, d.Info.Ancestors...)
		d.Meta.Set(FieldParentReference, d.Info.Ancestors[len(d.Info.Ancestors)-1])
		d.Meta.Set(FieldEmbeddedIndex, strconv.Itoa(d.Info.EmbeddedIndex))
	}
}
