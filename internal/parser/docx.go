package parser

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/dgallion1/bookplay/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx manuscripts. Heading styles open nested
// sections and the Title style names the book.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	stack := newSectionStack()
	styled := false

	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}

		style := docxStyle(para)
		if strings.EqualFold(style, "Title") {
			tree.Title = collapseSpace(text)
			continue
		}
		if level := docxHeadingLevel(style); level > 0 {
			styled = true
			stack.heading(level, collapseSpace(text))
			continue
		}
		// Manuscripts typed without heading styles still mark chapters
		// with "Глава N" lines.
		if !styled && isChapterHeading(text) {
			stack.heading(1, collapseSpace(text))
			continue
		}
		stack.paragraph(text)
	}
	tree.Children = stack.children()

	return tree, nil
}

var docxHeadingRe = regexp.MustCompile(`(?i)^(?:heading|заголовок)\s*([1-9])$`)

func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return strings.TrimSpace(para.Properties.Style.Val)
}

// docxHeadingLevel maps "Heading2", "heading 2" or a localized
// "Заголовок 2" style to 2.
func docxHeadingLevel(style string) int {
	m := docxHeadingRe.FindStringSubmatch(style)
	if m == nil {
		return 0
	}
	return int(m[1][0] - '0')
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
