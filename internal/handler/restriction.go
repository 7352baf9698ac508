package handler

import (
	"fmt"
	"regexp"

	"github.com/docpipe/docpipe/internal/document"
)

// Restriction gates whether a handler runs for a given document.
type Restriction interface {
	Matches(meta *document.Metadata) bool
}

// FieldRestriction matches when any value of Field matches the pattern.
type FieldRestriction struct {
	Field   string
	pattern *regexp.Regexp
}

// NewFieldRestriction compiles a field/pattern restriction. An empty
// pattern matches any document that has the field at all.
func NewFieldRestriction(field, pattern string) (*FieldRestriction, error) {
	r := &FieldRestriction{Field: field}
	if pattern != "" {
		p, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("restriction on %q: %w", field, err)
		}
		r.pattern = p
	}
	return r, nil
}

func (r *FieldRestriction) Matches(meta *document.Metadata) bool {
	values := meta.Get(r.Field)
	if r.pattern == nil {
		return len(values) > 0
	}
	for _, v := range values {
		if r.pattern.MatchString(v) {
			return true
		}
	}
	return false
}

// AnyMatches reports whether the metadata satisfies at least one of the
// restrictions. An empty list imposes no restriction.
func AnyMatches(restrictions []Restriction, meta *document.Metadata) bool {
	if len(restrictions) == 0 {
		return true
	}
	for _, r := range restrictions {
		if r.Matches(meta) {
			return true
		}
	}
	return false
}
