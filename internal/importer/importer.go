// Package importer implements the pipeline execution engine: handler
// dispatch with conditional flow control, document splitting with
// recursive re-entry, and response tree assembly.
package importer

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/docpipe/docpipe/internal/document"
	"github.com/docpipe/docpipe/internal/handler"
	"github.com/docpipe/docpipe/internal/streamio"
)

// Detector resolves a document's media type from its content, given an
// optional caller hint.
type Detector interface {
	Detect(s *streamio.CachedStream, hint string) (string, error)
}

// Parser extracts canonical text content and metadata from a document
// in place. Implementations replace the content stream and add fields
// such as document.title.
type Parser interface {
	Parse(doc *document.Doc) error
}

// ParserResolver picks a parser for a media type; nil means the
// document is imported as-is, without a parse step.
type ParserResolver func(contentType string) Parser

// Config assembles an importer. All collaborators are optional except
// the handler chains, which may themselves be empty.
type Config struct {
	// Stream controls content buffering (memory threshold, temp dir).
	Stream streamio.Config

	PreParse  []HandlerEntry
	PostParse []HandlerEntry

	Detector Detector
	Parsers  ParserResolver

	// CaseInsensitiveFields folds metadata key case.
	CaseInsensitiveFields bool

	Listeners []Listener
}

// Importer runs documents through the configured pipeline. It holds no
// per-document state: independent ImportDocument calls may run
// concurrently.
type Importer struct {
	cfg    Config
	log    *slog.Logger
	events *notifier
}

// New creates an importer.
func New(cfg Config, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}
	return &Importer{
		cfg:    cfg,
		log:    log,
		events: &notifier{listeners: cfg.Listeners, log: log},
	}
}

// ImportRequest describes one top-level document to import. Exactly one
// of Input or File should be set; both empty imports an empty document.
type ImportRequest struct {
	Reference       string
	Input           io.Reader
	File            string
	ContentType     string // optional hint
	ContentEncoding string // optional hint
	Metadata        *document.Metadata
}

// ImportDocument runs the full pipeline for one document and its
// descendants. The returned tree always has exactly one status per
// node; errors never escape as panics or returned errors.
func (im *Importer) ImportDocument(req ImportRequest) *Response {
	if req.Reference == "" {
		return newResponse("", Errored(fmt.Errorf("document reference is required"), "missing reference"), nil)
	}

	content, err := im.openContent(req)
	if err != nil {
		return newResponse(req.Reference, Errored(err, "cannot read document content"), nil)
	}

	meta := req.Metadata
	if meta != nil {
		meta = meta.Clone()
	} else if im.cfg.CaseInsensitiveFields {
		meta = document.NewMetadataCaseInsensitive()
	} else {
		meta = document.NewMetadata()
	}

	info := document.NewDocInfo(req.Reference)
	info.ContentType = req.ContentType
	info.ContentEncoding = req.ContentEncoding

	return im.importDoc(document.New(info, meta, content))
}

func (im *Importer) openContent(req ImportRequest) (*streamio.CachedStream, error) {
	switch {
	case req.File != "":
		return streamio.OpenFile(req.File, im.cfg.Stream)
	case req.Input != nil:
		return streamio.Open(req.Input, im.cfg.Stream)
	default:
		return streamio.OpenBytes(nil, im.cfg.Stream)
	}
}

// importDoc runs both phases plus parsing for one document, then
// recurses into any children it produced. Every child re-enters this
// same procedure from the top (detection included).
func (im *Importer) importDoc(doc *document.Doc) *Response {
	ref := doc.Reference()
	log := im.log.With("reference", ref)

	im.detectContentType(doc, log)
	doc.StampIdentity()

	var children []*document.Doc

	// Pre-parse phase.
	pre := &phaseContext{doc: doc, state: handler.PreParse}
	if err := im.runPhase(pre, im.cfg.PreParse); err != nil {
		return im.finalize(doc, pre.children, Errored(err, err.Error()))
	}
	children = append(children, pre.children...)
	if pre.rejection != nil {
		return im.finalize(doc, children, Rejected(pre.rejection.filter, pre.rejection.description))
	}

	// Parse step, when a parser claims this media type.
	if p := im.resolveParser(doc); p != nil {
		if err := p.Parse(doc); err != nil {
			wrapped := fmt.Errorf("parse %q as %s: %w", ref, doc.Info.ContentType, err)
			return im.finalize(doc, children, Errored(wrapped, wrapped.Error()))
		}
	}

	// Post-parse phase.
	post := &phaseContext{doc: doc, state: handler.PostParse}
	if err := im.runPhase(post, im.cfg.PostParse); err != nil {
		children = append(children, post.children...)
		return im.finalize(doc, children, Errored(err, err.Error()))
	}
	children = append(children, post.children...)
	if post.rejection != nil {
		return im.finalize(doc, children, Rejected(post.rejection.filter, post.rejection.description))
	}

	resp := newResponse(ref, Success(), doc)

	// Children re-enter the full import recursively. Sibling outcomes
	// are independent: one failing child never aborts the others.
	for _, child := range children {
		resp.AddNested(im.importDoc(child))
	}
	return resp
}

// finalize builds a non-success response: the document's own stream is
// released and any children collected before the failure are discarded,
// never processed.
func (im *Importer) finalize(doc *document.Doc, children []*document.Doc, status Status) *Response {
	for _, child := range children {
		child.Dispose()
	}
	doc.Dispose()
	if status.Code == StatusRejected {
		im.log.Info("document rejected", "reference", doc.Reference(), "filter", status.Filter, "reason", status.Description)
	} else {
		im.log.Error("document errored", "reference", doc.Reference(), "error", status.Err)
	}
	return newResponse(doc.Reference(), status, nil)
}

func (im *Importer) detectContentType(doc *document.Doc, log *slog.Logger) {
	if im.cfg.Detector == nil {
		return
	}
	ct, err := im.cfg.Detector.Detect(doc.Content(), doc.Info.ContentType)
	if err != nil {
		// Detection is advisory; the document proceeds untyped.
		log.Warn("content type detection failed", "error", err)
		return
	}
	doc.Info.ContentType = ct
}

func (im *Importer) resolveParser(doc *document.Doc) Parser {
	if im.cfg.Parsers == nil || doc.Info.ContentType == "" {
		return nil
	}
	return im.cfg.Parsers(doc.Info.ContentType)
}

func (im *Importer) newWriter() *streamio.Writer {
	return streamio.NewWriter(im.cfg.Stream)
}
