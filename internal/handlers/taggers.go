// Package handlers provides the stock pipeline handlers: taggers,
// transformers, filters and splitters assembled into chains by the
// pipeline configuration.
package handlers

import (
	"bufio"
	"fmt"
	"io"
	"regexp"

	"github.com/docpipe/docpipe/internal/document"
	"github.com/docpipe/docpipe/internal/handler"
)

// ConstantTagger sets a field to fixed values.
type ConstantTagger struct {
	Field     string
	Values    []string
	Overwrite bool
}

func (t *ConstantTagger) Name() string {
	return fmt.Sprintf("constant[%s]", t.Field)
}

func (t *ConstantTagger) Tag(ref string, meta *document.Metadata, content io.Reader, state handler.ParseState) error {
	if t.Overwrite {
		meta.Set(t.Field, t.Values...)
	} else {
		meta.Add(t.Field, t.Values...)
	}
	return nil
}

// RenameTagger moves a field's values to a new name.
type RenameTagger struct {
	From      string
	To        string
	Overwrite bool
}

func (t *RenameTagger) Name() string {
	return fmt.Sprintf("rename[%s->%s]", t.From, t.To)
}

func (t *RenameTagger) Tag(ref string, meta *document.Metadata, content io.Reader, state handler.ParseState) error {
	meta.Rename(t.From, t.To, t.Overwrite)
	return nil
}

// DeleteTagger removes fields.
type DeleteTagger struct {
	Fields []string
}

func (t *DeleteTagger) Name() string {
	return fmt.Sprintf("delete%v", t.Fields)
}

func (t *DeleteTagger) Tag(ref string, meta *document.Metadata, content io.Reader, state handler.ParseState) error {
	for _, f := range t.Fields {
		meta.Delete(f)
	}
	return nil
}

// TextPatternTagger extracts regex matches from content into a field.
// With a capture group, group 1 is taken; otherwise the full match.
type TextPatternTagger struct {
	Field   string
	pattern *regexp.Regexp
}

// NewTextPatternTagger compiles a content capture tagger.
func NewTextPatternTagger(field, pattern string) (*TextPatternTagger, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("text pattern tagger: %w", err)
	}
	return &TextPatternTagger{Field: field, pattern: re}, nil
}

func (t *TextPatternTagger) Name() string {
	return fmt.Sprintf("textPattern[%s]", t.Field)
}

func (t *TextPatternTagger) Tag(ref string, meta *document.Metadata, content io.Reader, state handler.ParseState) error {
	scanner := bufio.NewScanner(content)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		for _, m := range t.pattern.FindAllStringSubmatch(scanner.Text(), -1) {
			value := m[0]
			if len(m) > 1 {
				value = m[1]
			}
			meta.Add(t.Field, value)
		}
	}
	return scanner.Err()
}

var (
	_ handler.Tagger = (*ConstantTagger)(nil)
	_ handler.Tagger = (*RenameTagger)(nil)
	_ handler.Tagger = (*DeleteTagger)(nil)
	_ handler.Tagger = (*TextPatternTagger)(nil)
)
