package parser

import (
	"strings"

	"github.com/dgallion1/bookplay/internal/doctree"
)

// sectionStack builds a nested tree from a flat stream of headings and
// paragraphs. A heading closes every open section at its level or deeper.
type sectionStack struct {
	root    *doctree.DocNode
	entries []sectionEntry
	paras   []string
}

type sectionEntry struct {
	node  *doctree.DocNode
	level int
}

func newSectionStack() *sectionStack {
	root := &doctree.DocNode{}
	return &sectionStack{root: root, entries: []sectionEntry{{node: root}}}
}

func (s *sectionStack) heading(level int, title string) {
	s.flush()
	node := &doctree.DocNode{Title: title}
	for len(s.entries) > 1 && s.entries[len(s.entries)-1].level >= level {
		s.entries = s.entries[:len(s.entries)-1]
	}
	parent := s.entries[len(s.entries)-1].node
	parent.Children = append(parent.Children, node)
	s.entries = append(s.entries, sectionEntry{node: node, level: level})
}

// paragraph adds text to the innermost open section. Whitespace runs
// collapse to single spaces.
func (s *sectionStack) paragraph(text string) {
	if text = collapseSpace(text); text != "" {
		s.paras = append(s.paras, text)
	}
}

// block adds preformatted text as-is, keeping its line breaks.
func (s *sectionStack) block(text string) {
	if text = strings.TrimSpace(text); text != "" {
		s.paras = append(s.paras, text)
	}
}

func (s *sectionStack) flush() {
	if len(s.paras) == 0 {
		return
	}
	top := s.entries[len(s.entries)-1].node
	text := strings.Join(s.paras, "\n\n")
	if top.Text != "" {
		top.Text += "\n\n" + text
	} else {
		top.Text = text
	}
	s.paras = s.paras[:0]
}

// children returns the finished top-level sections. Text before the first
// heading comes first as an untitled node.
func (s *sectionStack) children() []*doctree.DocNode {
	s.flush()
	nodes := s.root.Children
	if s.root.Text != "" {
		nodes = append([]*doctree.DocNode{{Text: s.root.Text}}, nodes...)
	}
	return nodes
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
