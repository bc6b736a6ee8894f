package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/bookplay/internal/doctree"
)

// Config controls chunking behavior. Sizes are in characters.
type Config struct {
	ChunkSize    int // Target chunk size.
	ChunkOverlap int // Characters carried from the end of one chunk into the next.
	MinChunk     int // Minimum chunk size to emit.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1200,
		ChunkOverlap: 200,
		MinChunk:     20,
	}
}

// Len counts characters, not bytes.
func Len(s string) int {
	return utf8.RuneCountInString(s)
}

// ChunkTree walks a DocTree and produces structure-aware chunks.
func ChunkTree(tree *doctree.DocTree, cfg Config) []doctree.Chunk {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1200
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 200
	}
	if cfg.MinChunk <= 0 {
		cfg.MinChunk = 20
	}

	var chunks []doctree.Chunk
	index := 0

	for _, child := range tree.Children {
		index = walkNode(child, nil, cfg, &chunks, index)
	}

	return chunks
}

// walkNode recursively visits DocNodes, collecting text and splitting into chunks.
func walkNode(node *doctree.DocNode, breadcrumb []string, cfg Config, chunks *[]doctree.Chunk, index int) int {
	var bc []string
	bc = append(bc, breadcrumb...)
	if node.Title != "" {
		bc = append(bc, node.Title)
	}

	if node.Text != "" {
		parts := []string{node.Text}
		if Len(node.Text) > cfg.ChunkSize {
			parts = SplitText(node.Text, cfg.ChunkSize, cfg.ChunkOverlap)
		}
		for _, part := range parts {
			if Len(part) < cfg.MinChunk {
				continue
			}
			*chunks = append(*chunks, doctree.Chunk{
				Text:       part,
				Index:      index,
				Breadcrumb: copyBreadcrumb(bc),
				PageStart:  node.Page,
				PageEnd:    node.Page,
			})
			index++
		}
	}

	for _, child := range node.Children {
		index = walkNode(child, bc, cfg, chunks, index)
	}

	return index
}

type piece struct {
	text string
	para int
}

// SplitText breaks text into chunks of at most size characters, preferring
// paragraph, then sentence, then word boundaries. Up to overlap trailing
// characters (whole words) of each chunk are repeated at the start of the
// next one.
func SplitText(text string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	if overlap >= size {
		overlap = size / 2
	}

	var pieces []piece
	for i, para := range splitByParagraphs(text) {
		for _, p := range fitPieces(para, size) {
			pieces = append(pieces, piece{text: p, para: i})
		}
	}

	var result []string
	var current strings.Builder
	currentLen := 0
	lastPara := -1

	for _, p := range pieces {
		sep := " "
		if p.para != lastPara {
			sep = "\n\n"
		}
		pLen := Len(p.text)

		if currentLen > 0 && currentLen+Len(sep)+pLen > size {
			result = append(result, current.String())
			tail := overlapTail(current.String(), overlap)
			current.Reset()
			currentLen = 0
			if tail != "" && Len(tail)+Len(sep)+pLen <= size {
				current.WriteString(tail)
				currentLen = Len(tail)
			}
		}

		if currentLen > 0 {
			current.WriteString(sep)
			currentLen += Len(sep)
		}
		current.WriteString(p.text)
		currentLen += pLen
		lastPara = p.para
	}

	if currentLen > 0 {
		result = append(result, current.String())
	}

	return result
}

// Pack groups consecutive paragraphs so that each group, joined with blank
// lines, stays within size characters. A paragraph longer than size gets a
// group of its own. Empty input yields no groups.
func Pack(paragraphs []string, size int) [][]string {
	var groups [][]string
	var current []string
	currentLen := 0

	for _, p := range paragraphs {
		pLen := Len(p)
		if len(current) > 0 && currentLen+2+pLen > size {
			groups = append(groups, current)
			current = nil
			currentLen = 0
		}
		if len(current) > 0 {
			currentLen += 2
		}
		current = append(current, p)
		currentLen += pLen
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// fitPieces splits a paragraph into sentence, word or character pieces
// that each fit within size.
func fitPieces(para string, size int) []string {
	if Len(para) <= size {
		return []string{para}
	}
	var out []string
	for _, sent := range splitSentences(para) {
		if Len(sent) <= size {
			out = append(out, sent)
			continue
		}
		for _, word := range strings.Fields(sent) {
			if Len(word) <= size {
				out = append(out, word)
				continue
			}
			out = append(out, splitRunes(word, size)...)
		}
	}
	return out
}

func splitRunes(s string, size int) []string {
	runes := []rune(s)
	var out []string
	for len(runes) > size {
		out = append(out, string(runes[:size]))
		runes = runes[size:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

// splitByParagraphs splits on double-newlines.
func splitByParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?' || r == '…') && i+utf8.RuneLen(r) < len(text) && text[i+utf8.RuneLen(r)] == ' ' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// overlapTail returns the trailing whole words of text whose combined
// length stays within n characters.
func overlapTail(text string, n int) string {
	if n <= 0 {
		return ""
	}
	words := strings.Fields(text)
	total := 0
	start := len(words)
	for i := len(words) - 1; i >= 0; i-- {
		l := Len(words[i])
		if total > 0 {
			l++
		}
		if total+l > n {
			break
		}
		total += l
		start = i
	}
	if start == len(words) || start == 0 {
		return ""
	}
	return strings.Join(words[start:], " ")
}

func copyBreadcrumb(bc []string) []string {
	if len(bc) == 0 {
		return nil
	}
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}
