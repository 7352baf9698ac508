package handlers

import (
	"fmt"
	"io"
	"regexp"

	"github.com/docpipe/docpipe/internal/document"
	"github.com/docpipe/docpipe/internal/handler"
)

// ReplaceTransformer applies a regex substitution over the whole
// content. Capture-group references ($1 etc.) work in the replacement.
type ReplaceTransformer struct {
	pattern     *regexp.Regexp
	replacement string
}

// NewReplaceTransformer compiles a content substitution transformer.
func NewReplaceTransformer(pattern, replacement string) (*ReplaceTransformer, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("replace transformer: %w", err)
	}
	return &ReplaceTransformer{pattern: re, replacement: replacement}, nil
}

func (t *ReplaceTransformer) Name() string {
	return fmt.Sprintf("replace[%s]", t.pattern)
}

func (t *ReplaceTransformer) Transform(ref string, meta *document.Metadata, in io.Reader, out io.Writer, state handler.ParseState) error {
	b, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	_, err = out.Write(t.pattern.ReplaceAll(b, []byte(t.replacement)))
	return err
}

var _ handler.Transformer = (*ReplaceTransformer)(nil)
