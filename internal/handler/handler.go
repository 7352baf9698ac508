// Package handler defines the four capability roles a pipeline handler
// may implement, plus the restriction predicates that gate execution.
package handler

import (
	"io"

	"github.com/docpipe/docpipe/internal/document"
)

// ParseState tells a handler whether it runs before or after parsing.
type ParseState int

const (
	PreParse ParseState = iota
	PostParse
)

func (s ParseState) String() string {
	if s == PreParse {
		return "pre-parse"
	}
	return "post-parse"
}

// Tagger reads or mutates metadata only. Content is read-only.
type Tagger interface {
	Name() string
	Tag(ref string, meta *document.Metadata, content io.Reader, state ParseState) error
}

// Transformer may rewrite document content. Writing nothing to out
// keeps the original content.
type Transformer interface {
	Name() string
	Transform(ref string, meta *document.Metadata, in io.Reader, out io.Writer, state ParseState) error
}

// OnMatch selects a filter's aggregation mode.
type OnMatch int

const (
	// OnMatchExclude rejects the document immediately when the filter
	// declines it. This is the default mode.
	OnMatchExclude OnMatch = iota

	// OnMatchInclude never rejects directly; the document is rejected
	// only if no include filter in the whole phase accepted it.
	OnMatchInclude
)

// Filter decides whether a document survives.
type Filter interface {
	Name() string
	Accept(ref string, meta *document.Metadata, content io.Reader, state ParseState) (bool, error)
}

// OnMatcher is optionally implemented by filters to declare their
// aggregation mode. Filters without it are exclude-mode.
type OnMatcher interface {
	OnMatch() OnMatch
}

// ModeOf returns a filter's aggregation mode.
func ModeOf(f Filter) OnMatch {
	if m, ok := f.(OnMatcher); ok {
		return m.OnMatch()
	}
	return OnMatchExclude
}

// Splitter derives zero or more child documents from a parent. Writing
// to out optionally rewrites the parent's own content (empty = keep).
// Returned children need no ancestry stamping; the executor does that.
type Splitter interface {
	Name() string
	Split(ref string, meta *document.Metadata, in io.Reader, out io.Writer, state ParseState) ([]*document.Doc, error)
}
