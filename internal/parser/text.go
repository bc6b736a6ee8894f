package parser

import (
	"bufio"
	"io"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/bookplay/internal/doctree"
)

// TextParser handles plain text files. A line that looks like a chapter
// heading ("Глава 3", "Chapter IV", "Пролог") and stands alone between
// blank lines opens a new section; without any headings every paragraph
// becomes its own untitled node.
type TextParser struct{}

var (
	numberedHeadingRe = regexp.MustCompile(`^(?i:глава|chapter|часть|part|книга|book)\s+(?:[0-9]+|[IVXLCDM]+)\b(.*)$`)
	namedHeadingRe    = regexp.MustCompile(`^(?i:пролог|эпилог|prologue|epilogue|предисловие|послесловие|foreword|afterword)(?:[.:]\s*.*)?$`)
)

const maxHeadingLen = 80

// isChapterHeading reports whether line reads as a chapter heading: a
// capitalized keyword, a number in digits or upper-case roman numerals,
// and an optional subtitle set off by punctuation or starting with a
// capital. "Part I think, ..." is prose, not a heading.
func isChapterHeading(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || utf8.RuneCountInString(line) > maxHeadingLen {
		return false
	}
	if first, _ := utf8.DecodeRuneInString(line); !unicode.IsUpper(first) {
		return false
	}
	if namedHeadingRe.MatchString(line) {
		return true
	}
	m := numberedHeadingRe.FindStringSubmatch(line)
	return m != nil && isHeadingSubtitle(m[1])
}

func isHeadingSubtitle(rest string) bool {
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	switch r {
	case '.', ':', ')', '-', '\u2013', '\u2014':
		return true
	}
	if !unicode.IsSpace(r) {
		return false
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return true
	}
	r, _ = utf8.DecodeRuneInString(rest)
	return unicode.IsUpper(r) || unicode.IsDigit(r) || strings.ContainsRune("-\u2013\u2014\"'«\u201c", r)
}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	tree := &doctree.DocTree{
		Title: baseTitle(filename),
	}

	var (
		section    *doctree.DocNode
		paragraphs []string
		lines      []string
	)

	flushSection := func() {
		if section != nil {
			section.Text = strings.Join(paragraphs, "\n\n")
			tree.Children = append(tree.Children, section)
		} else {
			for _, para := range paragraphs {
				tree.Children = append(tree.Children, &doctree.DocNode{Text: para})
			}
		}
		paragraphs = nil
	}
	// A heading is only recognized as a paragraph of its own, so a wrapped
	// prose line never splits a chapter.
	flushPara := func() {
		switch {
		case len(lines) == 0:
			return
		case len(lines) == 1 && isChapterHeading(lines[0]):
			flushSection()
			section = &doctree.DocNode{Title: strings.TrimSpace(lines[0])}
		default:
			paragraphs = append(paragraphs, strings.Join(lines, "\n"))
		}
		lines = lines[:0]
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			flushPara()
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flushPara()
	flushSection()

	return tree, nil
}
