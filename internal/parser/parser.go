// Package parser holds the format-specific content decoders. Each
// decoder turns raw bytes into a doctree; the Resolver adapts them to
// the importer's parse step, flattening the tree into canonical text
// content and title/page metadata.
package parser

import (
	"fmt"
	"io"
	"strconv"

	"github.com/docpipe/docpipe/internal/doctree"
	"github.com/docpipe/docpipe/internal/document"
	"github.com/docpipe/docpipe/internal/importer"
	"github.com/docpipe/docpipe/internal/streamio"
)

// Parser converts raw document bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, ref string) (*doctree.DocTree, error)
}

// MediaTypeDOCX is the full OOXML word-processing media type.
const MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Options tune format-specific decoders.
type Options struct {
	PDFFallbackPdftotext bool
}

// ForContentType returns the decoder for a media type, nil when the
// type needs no parsing.
func ForContentType(contentType string) Parser {
	return forContentType(contentType, Options{})
}

func forContentType(contentType string, opts Options) Parser {
	switch contentType {
	case "text/plain":
		return &TextParser{}
	case "text/markdown":
		return &MarkdownParser{}
	case "text/csv":
		return &CSVParser{}
	case "text/html":
		return &HTMLParser{}
	case "application/pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}
	case MediaTypeDOCX:
		return &DOCXParser{}
	default:
		return nil
	}
}

// Resolver builds the importer-facing parser lookup. Replacement
// content is buffered with the given stream config.
func Resolver(cfg streamio.Config, opts Options) importer.ParserResolver {
	return func(contentType string) importer.Parser {
		p := forContentType(contentType, opts)
		if p == nil {
			return nil
		}
		return &docParser{p: p, cfg: cfg}
	}
}

// docParser runs a decoder and folds its tree into the document: text
// becomes the content stream, title and page count become metadata.
type docParser struct {
	p   Parser
	cfg streamio.Config
}

func (dp *docParser) Parse(doc *document.Doc) error {
	if err := doc.Content().Rewind(); err != nil {
		return err
	}
	tree, err := dp.p.Parse(doc.Content(), doc.Reference())
	if err != nil {
		return err
	}

	if tree.Title != "" && !doc.Meta.Has(document.FieldTitle) {
		doc.Meta.Set(document.FieldTitle, tree.Title)
	}
	if pages := tree.MaxPage(); pages > 0 {
		doc.Meta.Set(document.FieldPageCount, strconv.Itoa(pages))
	}

	text := tree.FlattenText()
	if text == "" {
		// Nothing extractable; the raw content stays canonical.
		return nil
	}
	s, err := streamio.OpenBytes([]byte(text), dp.cfg)
	if err != nil {
		return fmt.Errorf("buffer parsed text: %w", err)
	}
	doc.SetContent(s)
	return nil
}
