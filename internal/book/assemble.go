package book

import (
	"fmt"
	"strings"

	"github.com/dgallion1/bookplay/internal/chunker"
	"github.com/dgallion1/bookplay/internal/doctree"
)

// DefaultChapterChars bounds chapters built from untitled text.
const DefaultChapterChars = 8000

// FromTree turns a parsed document tree into a Document. Titled top-level
// sections become chapters with their whole subtree flattened into the
// body. Runs of untitled paragraphs or pages are packed into chapters.
// No chapter exceeds maxChars characters; longer ones are split into
// numbered pieces.
func FromTree(tree *doctree.DocTree, maxChars int) Document {
	if maxChars <= 0 {
		maxChars = DefaultChapterChars
	}
	doc := Document{Title: strings.TrimSpace(tree.Title)}

	nodes := tree.Children
	// A lone heading wrapping everything (e.g. "# Book title") is the book
	// title, not a chapter.
	if len(nodes) == 1 && nodes[0].Title != "" && len(nodes[0].Children) > 0 {
		wrapper := nodes[0]
		doc.Title = strings.TrimSpace(wrapper.Title)
		nodes = wrapper.Children
		if t := strings.TrimSpace(wrapper.Text); t != "" {
			nodes = append([]*doctree.DocNode{{Text: t}}, nodes...)
		}
	}

	a := assembler{maxChars: maxChars}
	for _, n := range nodes {
		if strings.TrimSpace(n.Title) == "" {
			a.loose = append(a.loose, n)
			continue
		}
		a.flushLoose()
		a.add(strings.TrimSpace(n.Title), flattenNode(n))
	}
	a.flushLoose()

	doc.Chapters = a.chapters
	doc.Normalize()
	return doc
}

type assembler struct {
	maxChars int
	chapters []Chapter
	loose    []*doctree.DocNode
	parts    int
}

func (a *assembler) add(title, text string) {
	if chunker.Len(text) <= a.maxChars {
		a.chapters = append(a.chapters, Chapter{
			Title:  title,
			Text:   text,
			Tokens: chunker.EstimateTokens(text),
		})
		return
	}
	pieces := chunker.SplitText(text, a.maxChars, 0)
	for i, piece := range pieces {
		a.chapters = append(a.chapters, Chapter{
			Title:  fmt.Sprintf("%s (%d/%d)", title, i+1, len(pieces)),
			Text:   piece,
			Tokens: chunker.EstimateTokens(piece),
		})
	}
}

func (a *assembler) flushLoose() {
	if len(a.loose) == 0 {
		return
	}
	var (
		texts []string
		kept  []*doctree.DocNode
	)
	for _, n := range a.loose {
		if t := flattenNode(n); t != "" {
			texts = append(texts, t)
			kept = append(kept, n)
		}
	}
	a.loose = a.loose[:0]

	offset := 0
	for _, group := range chunker.Pack(texts, a.maxChars) {
		nodes := kept[offset : offset+len(group)]
		offset += len(group)

		a.add(a.groupTitle(nodes), strings.Join(group, "\n\n"))
	}
}

func (a *assembler) groupTitle(nodes []*doctree.DocNode) string {
	first, last := 0, 0
	for _, n := range nodes {
		if n.Page <= 0 {
			continue
		}
		if first == 0 {
			first = n.Page
		}
		last = n.Page
	}
	switch {
	case first == 0:
		a.parts++
		return fmt.Sprintf("Part %d", a.parts)
	case first == last:
		return fmt.Sprintf("Page %d", first)
	default:
		return fmt.Sprintf("Pages %d-%d", first, last)
	}
}

// flattenNode joins a node's own text with the titles and text of all
// its descendants.
func flattenNode(n *doctree.DocNode) string {
	var parts []string
	if t := strings.TrimSpace(n.Text); t != "" {
		parts = append(parts, t)
	}
	var walk func([]*doctree.DocNode)
	walk = func(children []*doctree.DocNode) {
		for _, c := range children {
			if t := strings.TrimSpace(c.Title); t != "" {
				parts = append(parts, t)
			}
			if t := strings.TrimSpace(c.Text); t != "" {
				parts = append(parts, t)
			}
			walk(c.Children)
		}
	}
	walk(n.Children)
	return strings.Join(parts, "\n\n")
}
