package importer

import "github.com/docpipe/docpipe/internal/handler"

type handlerKind int

const (
	kindTagger handlerKind = iota
	kindTransformer
	kindFilter
	kindSplitter
)

// HandlerEntry binds one handler capability into a phase chain. The
// capability is resolved once when the chain is built, never
// per-invocation.
type HandlerEntry struct {
	kind handlerKind
	name string

	tagger      handler.Tagger
	transformer handler.Transformer
	filter      handler.Filter
	splitter    handler.Splitter

	restrictions []handler.Restriction
}

// Name returns the bound handler's name.
func (e HandlerEntry) Name() string {
	return e.name
}

// Tag binds a tagger, optionally gated by restrictions.
func Tag(t handler.Tagger, restrictions ...handler.Restriction) HandlerEntry {
	return HandlerEntry{kind: kindTagger, name: t.Name(), tagger: t, restrictions: restrictions}
}

// Transform binds a transformer.
func Transform(t handler.Transformer, restrictions ...handler.Restriction) HandlerEntry {
	return HandlerEntry{kind: kindTransformer, name: t.Name(), transformer: t, restrictions: restrictions}
}

// Filter binds a filter.
func Filter(f handler.Filter, restrictions ...handler.Restriction) HandlerEntry {
	return HandlerEntry{kind: kindFilter, name: f.Name(), filter: f, restrictions: restrictions}
}

// Split binds a splitter.
func Split(s handler.Splitter, restrictions ...handler.Restriction) HandlerEntry {
	return HandlerEntry{kind: kindSplitter, name: s.Name(), splitter: s, restrictions: restrictions}
}
