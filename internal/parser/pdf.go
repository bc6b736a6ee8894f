package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/bookplay/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. It tries the Go library first, then falls
// back to pdftotext when enabled. Pages are reflowed into paragraphs and
// grouped under chapter headings where a page starts with one.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "bookplay-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	text, title, err := extractPDFText(tmpPath)
	// Scanned or oddly encoded PDFs often come back empty from the Go
	// reader.
	if (err != nil || strings.TrimSpace(text) == "") && p.FallbackPdftotext {
		if alt, altErr := extractPdftotext(tmpPath); altErr == nil {
			text, err = alt, nil
		} else if err == nil {
			err = altErr
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	tree := &doctree.DocTree{Title: baseTitle(filename)}
	if title != "" {
		tree.Title = title
	}
	tree.Children = pageSections(splitPages(text))
	return tree, nil
}

// pageSections turns page texts into nodes. A page whose first line is a
// chapter heading opens a titled section that absorbs the following
// pages up to the next heading. Pages before the first heading stay
// untitled page nodes.
func pageSections(pages []string) []*doctree.DocNode {
	var (
		nodes   []*doctree.DocNode
		current *doctree.DocNode
	)
	for i, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		first, rest, _ := strings.Cut(page, "\n")
		if isChapterHeading(first) {
			current = &doctree.DocNode{Title: strings.TrimSpace(first), Page: i + 1}
			current.Text = reflowPage(rest)
			nodes = append(nodes, current)
			continue
		}
		if current != nil {
			if current.Text != "" {
				current.Text += "\n\n"
			}
			current.Text += reflowPage(page)
			continue
		}
		nodes = append(nodes, &doctree.DocNode{Text: reflowPage(page), Page: i + 1})
	}
	return nodes
}

// reflowPage joins hard-wrapped lines into paragraphs. Blank lines end a
// paragraph and a hyphen at a line end is treated as a word break.
func reflowPage(page string) string {
	var (
		paras   []string
		current strings.Builder
	)
	flush := func() {
		if current.Len() > 0 {
			paras = append(paras, current.String())
			current.Reset()
		}
	}
	for _, line := range strings.Split(page, "\n") {
		line = collapseSpace(line)
		if line == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			prev := current.String()
			if strings.HasSuffix(prev, "-") && !strings.HasSuffix(prev, " -") {
				current.Reset()
				current.WriteString(strings.TrimSuffix(prev, "-"))
			} else {
				current.WriteString(" ")
			}
		}
		current.WriteString(line)
	}
	flush()
	return strings.Join(paras, "\n\n")
}

func extractPDFText(path string) (text, title string, err error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	title = collapseSpace(reader.Trailer().Key("Info").Key("Title").Text())

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if i > 1 {
			buf.WriteString("\f") // Form feed as page separator.
		}
		buf.WriteString(pageText)
	}
	return buf.String(), title, nil
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

func splitPages(text string) []string {
	return strings.Split(text, "\f")
}
