// Package doctree is the format-neutral shape every parser produces: a
// titled book with nested sections.
package doctree

import "strings"

// DocTree is the root of a parsed book.
type DocTree struct {
	Title    string     // From metadata, or the filename without extension
	Children []*DocNode // Top-level sections in reading order
}

// DocNode is a section or a run of untitled text.
type DocNode struct {
	Title    string     // Heading; empty for loose paragraphs and pages
	Text     string     // Paragraphs joined by blank lines
	Page     int        // 1-based source page, 0 when the format has none
	Children []*DocNode // Subsections
}

// Chunk is a sized text segment with structural context.
type Chunk struct {
	Text       string   // Chunk text content
	Index      int      // Sequence number within document
	Breadcrumb []string // Heading hierarchy, e.g. ["Часть первая", "Глава 3"]
	PageStart  int
	PageEnd    int
}

// Walk visits every node depth-first in reading order.
func (t *DocTree) Walk(fn func(n *DocNode, depth int)) {
	var walk func(nodes []*DocNode, depth int)
	walk = func(nodes []*DocNode, depth int) {
		for _, n := range nodes {
			fn(n, depth)
			walk(n.Children, depth+1)
		}
	}
	walk(t.Children, 0)
}

// PlainText joins the text of every node, skipping headings.
func (t *DocTree) PlainText() string {
	var parts []string
	t.Walk(func(n *DocNode, _ int) {
		if s := strings.TrimSpace(n.Text); s != "" {
			parts = append(parts, s)
		}
	})
	return strings.Join(parts, "\n\n")
}
