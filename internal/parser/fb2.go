package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/bookplay/internal/doctree"
	"golang.org/x/net/html/charset"
)

// FB2Parser handles FictionBook 2 files. Nested <section> elements become
// nested nodes titled by their <title>. Note and comment bodies are
// skipped.
type FB2Parser struct{}

func (p *FB2Parser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	dec.Strict = false

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	root := &doctree.DocNode{}
	stack := []*doctree.DocNode{root}

	var (
		capture   strings.Builder
		capturing int
		inTitle   bool
		titleText []string
		bookTitle bool
		sawRoot   bool
	)

	appendPara := func(text string) {
		text = strings.Join(strings.Fields(text), " ")
		if text == "" {
			return
		}
		top := stack[len(stack)-1]
		if top.Text != "" {
			top.Text += "\n\n" + text
		} else {
			top.Text = text
		}
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse fb2: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "FictionBook":
				sawRoot = true
			case "body":
				if name := attr(t, "name"); name == "notes" || name == "comments" {
					if err := dec.Skip(); err != nil {
						return nil, fmt.Errorf("parse fb2: %w", err)
					}
				}
			case "binary":
				if err := dec.Skip(); err != nil {
					return nil, fmt.Errorf("parse fb2: %w", err)
				}
			case "section":
				node := &doctree.DocNode{}
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
				stack = append(stack, node)
			case "title":
				inTitle = true
				titleText = nil
			case "book-title":
				bookTitle = true
				capture.Reset()
				capturing++
			case "p", "v", "subtitle", "text-author":
				if capturing == 0 {
					capture.Reset()
				}
				capturing++
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "section":
				if len(stack) > 1 {
					stack = stack[:len(stack)-1]
				}
			case "title":
				inTitle = false
				if len(stack) > 1 {
					stack[len(stack)-1].Title = strings.Join(titleText, ". ")
				}
			case "book-title":
				capturing--
				if bookTitle {
					if bt := strings.TrimSpace(capture.String()); bt != "" {
						tree.Title = bt
					}
					bookTitle = false
				}
			case "p", "v", "subtitle", "text-author":
				capturing--
				if capturing > 0 {
					capture.WriteString(" ")
					continue
				}
				text := capture.String()
				if inTitle {
					if s := strings.Join(strings.Fields(text), " "); s != "" {
						titleText = append(titleText, s)
					}
				} else {
					appendPara(text)
				}
			}

		case xml.CharData:
			if capturing > 0 {
				capture.Write(t)
			}
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("parse fb2: missing FictionBook root element")
	}

	tree.Children = root.Children
	if root.Text != "" {
		tree.Children = append([]*doctree.DocNode{{Text: root.Text}}, tree.Children...)
	}
	return tree, nil
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
