package retrieval

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/bookplay/internal/book"
)

const (
	// DefaultMaxChars is the context budget used when none is given.
	DefaultMaxChars = 6000

	// TopChapters is how many ranked chapters are offered to the budget.
	TopChapters = 2
)

// Result is the assembled context plus the titles of the chapters chosen
// for it, in rank order.
type Result struct {
	Context string   `json:"context"`
	Used    []string `json:"used"`
}

// Ranked is a chapter with its relevance score and document position.
type Ranked struct {
	Index   int
	Score   int
	Chapter book.Chapter
}

// Select scores every chapter of doc against question, keeps the top two
// and concatenates them into a context of at most maxChars characters.
// A non-positive maxChars means DefaultMaxChars. Any non-empty document
// yields a non-empty context.
func Select(doc book.Document, question string, maxChars int) Result {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if len(doc.Chapters) == 0 {
		return Result{Context: "", Used: []string{}}
	}

	picked := pick(Rank(doc.Chapters, question), TopChapters)
	if len(picked) == 0 {
		picked = []Ranked{{Index: 0, Chapter: doc.Chapters[0]}}
	}

	blocks := Assemble(picked, maxChars)
	if len(blocks) == 0 {
		blocks = []string{Block(doc.Chapters[0])}
	}

	used := make([]string, len(picked))
	for i, r := range picked {
		used[i] = displayTitle(r.Chapter.Title)
	}

	return Result{
		Context: truncateRunes(strings.Join(blocks, "\n"), maxChars),
		Used:    used,
	}
}

// Rank scores chapters against question and orders them by score,
// highest first. Equal scores keep document order.
func Rank(chapters []book.Chapter, question string) []Ranked {
	q := TokenSet(question)
	ranked := make([]Ranked, len(chapters))
	for i, ch := range chapters {
		ranked[i] = Ranked{Index: i, Score: Score(ch.Text, q), Chapter: ch}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func pick(ranked []Ranked, n int) []Ranked {
	if len(ranked) > n {
		return ranked[:n]
	}
	return ranked
}

// Assemble formats each chapter as a block and appends blocks in order
// until the next one would push the newline-joined length past maxChars.
func Assemble(ranked []Ranked, maxChars int) []string {
	var blocks []string
	total := 0
	for _, r := range ranked {
		b := Block(r.Chapter)
		n := utf8.RuneCountInString(b)
		if len(blocks) > 0 {
			n++
		}
		if total+n > maxChars {
			break
		}
		blocks = append(blocks, b)
		total += n
	}
	return blocks
}

// Block renders a chapter as a title header line followed by its trimmed
// text.
func Block(ch book.Chapter) string {
	header := "### " + displayTitle(ch.Title)
	text := strings.TrimSpace(ch.Text)
	if text == "" {
		return header
	}
	return header + "\n" + text
}

func displayTitle(title string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return book.UntitledTitle
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
