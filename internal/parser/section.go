package parser

import (
	"strings"

	"github.com/docpipe/docpipe/internal/doctree"
)

// sectionBuilder assembles a heading-nested doctree from a linear walk
// of headings and text blocks. Markdown, HTML and DOCX decoding all
// share it.
type sectionBuilder struct {
	root  *doctree.DocNode
	stack []sectionFrame
	text  strings.Builder
}

type sectionFrame struct {
	node  *doctree.DocNode
	level int
}

func newSectionBuilder(title string) *sectionBuilder {
	root := &doctree.DocNode{Title: title}
	return &sectionBuilder{
		root:  root,
		stack: []sectionFrame{{node: root, level: 0}},
	}
}

// addText appends a text block to the current section.
func (b *sectionBuilder) addText(t string) {
	t = strings.TrimSpace(t)
	if t == "" {
		return
	}
	if b.text.Len() > 0 {
		b.text.WriteString("\n\n")
	}
	b.text.WriteString(t)
}

// openSection flushes pending text and starts a section at the given
// heading level, nesting under the nearest shallower section.
func (b *sectionBuilder) openSection(title string, level int) {
	b.flush()
	node := &doctree.DocNode{Title: title}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].node
	parent.Children = append(parent.Children, node)
	b.stack = append(b.stack, sectionFrame{node: node, level: level})
}

func (b *sectionBuilder) flush() {
	t := strings.TrimSpace(b.text.String())
	if t != "" {
		top := b.stack[len(b.stack)-1].node
		if top.Text != "" {
			top.Text += "\n\n" + t
		} else {
			top.Text = t
		}
	}
	b.text.Reset()
}

// finish flushes and returns the top-level sections. Heading-less
// documents collapse into a single text node.
func (b *sectionBuilder) finish() []*doctree.DocNode {
	b.flush()
	if len(b.root.Children) == 0 && b.root.Text != "" {
		return []*doctree.DocNode{{Text: b.root.Text}}
	}
	return b.root.Children
}
