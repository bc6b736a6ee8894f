package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/bookplay/internal/chunker"
	"github.com/dgallion1/bookplay/internal/doctree"
	"github.com/dgallion1/bookplay/internal/parser"
	"github.com/spf13/cobra"
)

var chunksCmd = &cobra.Command{
	Use:   "chunks <file>",
	Short: "Split a book into overlapping chunks",
	Long:  "Parse a book and split it into structure-aware chunks. Without --chunk, prints a one-line preview per chunk.",
	Args:  cobra.ExactArgs(1),
	RunE:  runChunks,
}

var (
	chunkSize    int
	chunkOverlap int
	chunkNumber  int
	chunkFlat    bool
)

func init() {
	chunksCmd.Flags().IntVarP(&chunkSize, "size", "s", 1200, "Target chunk size in characters")
	chunksCmd.Flags().IntVarP(&chunkOverlap, "overlap", "o", 200, "Characters carried into the next chunk")
	chunksCmd.Flags().IntVarP(&chunkNumber, "chunk", "n", 0, "Print chunk N in full (1-based); 0 lists previews")
	chunksCmd.Flags().BoolVar(&chunkFlat, "flat", false, "Ignore headings and split the whole text")

	rootCmd.AddCommand(chunksCmd)
}

func runChunks(cmd *cobra.Command, args []string) error {
	tree, err := parseFile(args[0], parser.Options{PDFFallbackPdftotext: true})
	if err != nil {
		return err
	}

	chunks := splitTree(tree, chunker.Config{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}, chunkFlat)
	return printChunks(cmd.OutOrStdout(), tree, chunks, chunkNumber)
}

// splitTree chunks tree by structure, or over its plain text when flat.
// A non-positive size or negative overlap takes the chunker default.
func splitTree(tree *doctree.DocTree, cfg chunker.Config, flat bool) []doctree.Chunk {
	def := chunker.DefaultConfig()
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = def.ChunkOverlap
	}
	if !flat {
		return chunker.ChunkTree(tree, cfg)
	}
	var chunks []doctree.Chunk
	for i, text := range chunker.SplitText(tree.PlainText(), cfg.ChunkSize, cfg.ChunkOverlap) {
		chunks = append(chunks, doctree.Chunk{Text: text, Index: i})
	}
	return chunks
}

func parseFile(path string, opts parser.Options) (*doctree.DocTree, error) {
	p, err := parser.ForFile(path, opts)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	tree, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return tree, nil
}

func printChunks(w io.Writer, tree *doctree.DocTree, chunks []doctree.Chunk, n int) error {
	total := 0
	for _, c := range chunks {
		total += chunker.Len(c.Text)
	}
	fmt.Fprintf(w, "%s: %d chunks, %d chars\n", tree.Title, len(chunks), total)

	if n < 0 || n > len(chunks) {
		return fmt.Errorf("chunk %d out of range (1-%d)", n, len(chunks))
	}
	if n > 0 {
		c := chunks[n-1]
		fmt.Fprintf(w, "\n--- chunk %d [%s] %d chars ---\n%s\n", n, strings.Join(c.Breadcrumb, " > "), chunker.Len(c.Text), c.Text)
		return nil
	}

	for i, c := range chunks {
		fmt.Fprintf(w, "%4d  %5d  %s\n", i+1, chunker.Len(c.Text), preview(c.Text, 60))
	}
	return nil
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
