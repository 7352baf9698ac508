// Package doctree is the intermediate structure format parsers emit
// before the importer flattens it into canonical text content.
package doctree

import "strings"

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from metadata or reference)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page (0 if N/A)
	Children []*DocNode // Subsections
}

// FlattenText joins all node text into a single plain-text body, in
// document order, separated by blank lines.
func (t *DocTree) FlattenText() string {
	var sb strings.Builder
	var walk func(nodes []*DocNode)
	walk = func(nodes []*DocNode) {
		for _, n := range nodes {
			if n.Text != "" {
				if sb.Len() > 0 {
					sb.WriteString("\n\n")
				}
				sb.WriteString(n.Text)
			}
			walk(n.Children)
		}
	}
	walk(t.Children)
	return sb.String()
}

// MaxPage returns the highest page number seen in the tree, 0 when no
// node carries page information.
func (t *DocTree) MaxPage() int {
	max := 0
	var walk func(nodes []*DocNode)
	walk = func(nodes []*DocNode) {
		for _, n := range nodes {
			if n.Page > max {
				max = n.Page
			}
			walk(n.Children)
		}
	}
	walk(t.Children)
	return max
}
