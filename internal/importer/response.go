package importer

import "github.com/docpipe/docpipe/internal/document"

// Response is one node of the result tree produced by an import call.
// Children appear only under success nodes: rejection and error
// short-circuit before any splitting happens for that document.
type Response struct {
	Reference string
	Status    Status

	doc    *document.Doc
	parent *Response
	nested []*Response
}

func newResponse(ref string, status Status, doc *document.Doc) *Response {
	return &Response{Reference: ref, Status: status, doc: doc}
}

// Success reports this document's own outcome, not its children's.
func (r *Response) Success() bool {
	return r.Status.Code == StatusSuccess
}

// Doc returns the resulting document; non-nil iff Success.
func (r *Response) Doc() *document.Doc {
	return r.doc
}

// AddNested attaches a child response and sets its parent back-link.
func (r *Response) AddNested(child *Response) {
	child.parent = r
	r.nested = append(r.nested, child)
}

// Nested returns child responses in the order their documents were
// produced.
func (r *Response) Nested() []*Response {
	return r.nested
}

// Parent returns the enclosing response, nil at the root.
func (r *Response) Parent() *Response {
	return r.parent
}

// Walk visits this response and all descendants depth-first.
func (r *Response) Walk(fn func(*Response)) {
	fn(r)
	for _, n := range r.nested {
		n.Walk(fn)
	}
}

// Dispose releases the content streams of every document in the tree.
// Call it once the result is no longer needed.
func (r *Response) Dispose() {
	r.Walk(func(n *Response) {
		if n.doc != nil {
			n.doc.Dispose()
		}
	})
}
