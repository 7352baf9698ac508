package handlers

import (
	"bufio"
	"fmt"
	"io"
	"regexp"

	"github.com/docpipe/docpipe/internal/document"
	"github.com/docpipe/docpipe/internal/handler"
)

// FieldFilter matches a regex against a metadata field's values.
// In exclude mode (default) a match rejects the document; in include
// mode matches count toward the phase's include aggregation.
type FieldFilter struct {
	Field   string
	Mode    handler.OnMatch
	pattern *regexp.Regexp
}

// NewFieldFilter compiles a metadata field filter.
func NewFieldFilter(field, pattern string, mode handler.OnMatch) (*FieldFilter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("field filter on %q: %w", field, err)
	}
	return &FieldFilter{Field: field, Mode: mode, pattern: re}, nil
}

func (f *FieldFilter) Name() string {
	return fmt.Sprintf("fieldFilter[%s]", f.Field)
}

func (f *FieldFilter) OnMatch() handler.OnMatch { return f.Mode }

func (f *FieldFilter) Accept(ref string, meta *document.Metadata, content io.Reader, state handler.ParseState) (bool, error) {
	matched := false
	for _, v := range meta.Get(f.Field) {
		if f.pattern.MatchString(v) {
			matched = true
			break
		}
	}
	return f.verdict(matched), nil
}

func (f *FieldFilter) verdict(matched bool) bool {
	if f.Mode == handler.OnMatchInclude {
		return matched
	}
	return !matched
}

// ContentFilter matches a regex against content, line by line.
type ContentFilter struct {
	Mode    handler.OnMatch
	pattern *regexp.Regexp
}

// NewContentFilter compiles a content filter.
func NewContentFilter(pattern string, mode handler.OnMatch) (*ContentFilter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("content filter: %w", err)
	}
	return &ContentFilter{Mode: mode, pattern: re}, nil
}

func (f *ContentFilter) Name() string {
	return fmt.Sprintf("contentFilter[%s]", f.pattern)
}

func (f *ContentFilter) OnMatch() handler.OnMatch { return f.Mode }

func (f *ContentFilter) Accept(ref string, meta *document.Metadata, content io.Reader, state handler.ParseState) (bool, error) {
	scanner := bufio.NewScanner(content)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	matched := false
	for scanner.Scan() {
		if f.pattern.MatchString(scanner.Text()) {
			matched = true
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return false, err
	}
	if f.Mode == handler.OnMatchInclude {
		return matched, nil
	}
	return !matched, nil
}

var (
	_ handler.Filter    = (*FieldFilter)(nil)
	_ handler.OnMatcher = (*FieldFilter)(nil)
	_ handler.Filter    = (*ContentFilter)(nil)
	_ handler.OnMatcher = (*ContentFilter)(nil)
)
