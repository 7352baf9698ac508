package importer

import (
	"fmt"

	"github.com/docpipe/docpipe/internal/document"
	"github.com/docpipe/docpipe/internal/handler"
	"github.com/docpipe/docpipe/internal/streamio"
)

// phaseContext is the ephemeral state for one document in one phase.
type phaseContext struct {
	doc   *document.Doc
	state handler.ParseState

	rejection      *rejection
	sawInclude     bool
	includeMatched bool

	children []*document.Doc
}

type rejection struct {
	filter      string
	description string
}

// runPhase walks the handler chain for one phase. A returned error is a
// handler or stream failure and aborts the phase; rejections are
// recorded on the context instead.
func (im *Importer) runPhase(pctx *phaseContext, entries []HandlerEntry) error {
	doc := pctx.doc
	ref := doc.Reference()

	for _, entry := range entries {
		if pctx.rejection != nil {
			break
		}
		// Restriction misses skip the handler silently: no events.
		if !handler.AnyMatches(entry.restrictions, doc.Meta) {
			continue
		}

		// Handlers never coordinate cursor position with their
		// predecessor; the stream is always rewound on handoff.
		if err := doc.Content().Rewind(); err != nil {
			return fmt.Errorf("rewind content of %q: %w", ref, err)
		}

		im.events.fire(Event{Type: HandlerBegin, Reference: ref, Handler: entry.name, State: pctx.state})

		if err := im.dispatch(pctx, entry); err != nil {
			wrapped := fmt.Errorf("handler %q on %q (%s): %w", entry.name, ref, pctx.state, err)
			im.events.fire(Event{Type: HandlerError, Reference: ref, Handler: entry.name, State: pctx.state, Err: wrapped})
			return wrapped
		}

		im.events.fire(Event{Type: HandlerEnd, Reference: ref, Handler: entry.name, State: pctx.state})
	}

	// Include filters aggregate across the whole phase: having run at
	// least one without any match rejects the document.
	if pctx.rejection == nil && pctx.sawInclude && !pctx.includeMatched {
		pctx.rejection = &rejection{description: "no include filter matched"}
	}
	return nil
}

func (im *Importer) dispatch(pctx *phaseContext, entry HandlerEntry) error {
	doc := pctx.doc
	ref := doc.Reference()

	switch entry.kind {
	case kindTagger:
		return entry.tagger.Tag(ref, doc.Meta, doc.Content(), pctx.state)

	case kindTransformer:
		w := im.newWriter()
		if err := entry.transformer.Transform(ref, doc.Meta, doc.Content(), w, pctx.state); err != nil {
			w.Discard()
			return err
		}
		return im.replaceContent(doc, w)

	case kindFilter:
		accepted, err := entry.filter.Accept(ref, doc.Meta, doc.Content(), pctx.state)
		if err != nil {
			return err
		}
		if handler.ModeOf(entry.filter) == handler.OnMatchInclude {
			pctx.sawInclude = true
			if accepted {
				pctx.includeMatched = true
			}
			return nil
		}
		if !accepted {
			pctx.rejection = &rejection{
				filter:      entry.name,
				description: fmt.Sprintf("rejected by filter %q", entry.name),
			}
		}
		return nil

	case kindSplitter:
		w := im.newWriter()
		children, err := entry.splitter.Split(ref, doc.Meta, doc.Content(), w, pctx.state)
		if err != nil {
			w.Discard()
			return err
		}
		if err := im.replaceContent(doc, w); err != nil {
			return err
		}
		for _, child := range children {
			idx := len(pctx.children)
			child.Info = document.AdoptChild(doc.Info, child.Info, idx)
			child.StampIdentity()
			pctx.children = append(pctx.children, child)
		}
		return nil
	}
	return fmt.Errorf("unknown handler kind %d", entry.kind)
}

// replaceContent makes the writer's output canonical, unless it stayed
// empty: a document is never silently emptied.
func (im *Importer) replaceContent(doc *document.Doc, w *streamio.Writer) error {
	if w.Len() == 0 {
		w.Discard()
		return nil
	}
	s, err := w.Stream()
	if err != nil {
		return fmt.Errorf("finalize content of %q: %w", doc.Reference(), err)
	}
	doc.SetContent(s)
	return nil
}
