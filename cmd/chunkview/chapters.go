package main

import (
	"fmt"
	"io"

	"github.com/dgallion1/bookplay/internal/book"
	"github.com/dgallion1/bookplay/internal/chunker"
	"github.com/dgallion1/bookplay/internal/parser"
	"github.com/dgallion1/bookplay/internal/retrieval"
	"github.com/spf13/cobra"
)

var chaptersCmd = &cobra.Command{
	Use:   "chapters <file>",
	Short: "List the chapters a book is split into",
	Args:  cobra.ExactArgs(1),
	RunE:  runChapters,
}

var selectCmd = &cobra.Command{
	Use:   "select <file> <question>",
	Short: "Show the chat context chosen for a question",
	Args:  cobra.ExactArgs(2),
	RunE:  runSelect,
}

var (
	chapterMaxChars int
	selectMaxChars  int
)

func init() {
	chaptersCmd.Flags().IntVar(&chapterMaxChars, "max-chars", 8000, "Largest chapter size before splitting")
	selectCmd.Flags().IntVar(&chapterMaxChars, "max-chars", 8000, "Largest chapter size before splitting")
	selectCmd.Flags().IntVar(&selectMaxChars, "budget", retrieval.DefaultMaxChars, "Context budget in characters")

	rootCmd.AddCommand(chaptersCmd, selectCmd)
}

func loadBook(path string) (book.Document, error) {
	tree, err := parseFile(path, parser.Options{PDFFallbackPdftotext: true})
	if err != nil {
		return book.Document{}, err
	}
	return book.FromTree(tree, chapterMaxChars), nil
}

func runChapters(cmd *cobra.Command, args []string) error {
	doc, err := loadBook(args[0])
	if err != nil {
		return err
	}
	printChapters(cmd.OutOrStdout(), doc)
	return nil
}

func printChapters(w io.Writer, doc book.Document) {
	sum := doc.Summarize()
	fmt.Fprintf(w, "%s: %d chapters, %d chars\n", doc.Title, sum.Chapters, sum.Chars)
	for i, ch := range doc.Chapters {
		fmt.Fprintf(w, "%4d  %6d  %s\n", i+1, chunker.Len(ch.Text), ch.Title)
	}
}

func runSelect(cmd *cobra.Command, args []string) error {
	doc, err := loadBook(args[0])
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	printRanking(w, retrieval.Rank(doc.Chapters, args[1]))
	res := retrieval.Select(doc, args[1], selectMaxChars)
	fmt.Fprintf(w, "\nused: %v\n\n%s\n", res.Used, res.Context)
	return nil
}

// printRanking lists chapters best first with their score and their
// 1-based position in the book.
func printRanking(w io.Writer, ranked []retrieval.Ranked) {
	for _, r := range ranked {
		fmt.Fprintf(w, "%3d  #%-4d %s\n", r.Score, r.Index+1, r.Chapter.Title)
	}
}
