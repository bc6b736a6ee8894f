package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/bookplay/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// HTMLParser handles HTML books. <h1>-<h6> open nested sections; block
// elements and loose text between them become paragraphs.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	// Old e-book sites still serve windows-1251 and koi8-r pages.
	utf8Reader, err := charset.NewReader(r, "")
	if err != nil {
		return nil, fmt.Errorf("detect html charset: %w", err)
	}
	doc, err := html.Parse(utf8Reader)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	if title := findTitle(doc); title != "" {
		tree.Title = title
	}

	stack := newSectionStack()
	body := findBody(doc)
	if body == nil {
		body = doc
	}
	walkHTMLBlocks(body, stack.heading, stack.paragraph)
	tree.Children = stack.children()

	return tree, nil
}

// walkHTMLBlocks reports headings and paragraphs in document order. Text
// outside block elements is gathered until the next block boundary or
// <br>.
func walkHTMLBlocks(n *html.Node, onHeading func(level int, text string), onPara func(text string)) {
	var loose strings.Builder
	flushLoose := func() {
		if t := collapseSpace(loose.String()); t != "" {
			onPara(t)
		}
		loose.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			loose.WriteString(n.Data)
			return
		case html.ElementNode:
			if level := headingLevel(n.Data); level > 0 {
				flushLoose()
				if t := collapseSpace(textContent(n)); t != "" {
					onHeading(level, t)
				}
				return
			}
			switch n.Data {
			case "script", "style", "nav", "footer", "header", "aside", "noscript":
				return
			case "br", "hr":
				flushLoose()
				return
			case "p", "li", "td", "blockquote", "dd", "dt", "figcaption":
				flushLoose()
				if t := textContent(n); t != "" {
					onPara(t)
				}
				return
			case "pre":
				flushLoose()
				for _, para := range splitBlankLines(textContent(n)) {
					onPara(para)
				}
				return
			}
			if isBlockElement(n.Data) {
				flushLoose()
				defer flushLoose()
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	flushLoose()
}

func isBlockElement(tag string) bool {
	switch tag {
	case "div", "section", "article", "main", "body", "table", "tr", "ul", "ol", "dl", "center", "form":
		return true
	}
	return false
}

func splitBlankLines(text string) []string {
	var paras []string
	for _, block := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if t := strings.TrimSpace(block); t != "" {
			paras = append(paras, t)
		}
	}
	return paras
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && n.Data == "br" {
			buf.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return collapseSpace(textContent(n))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
