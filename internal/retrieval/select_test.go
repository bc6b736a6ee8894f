package retrieval

import (
	"reflect"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/dgallion1/bookplay/internal/book"
)

func doc(chapters ...book.Chapter) book.Document {
	return book.Document{Title: "Test", Chapters: chapters}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"latin", "Where did the cat sit?", []string{"where", "did", "the", "cat", "sit"}},
		{"cyrillic", "Рельсы ПЕЛИ!", []string{"рельсы", "пели"}},
		{"mixed with digits", "Глава 3: Page42 и Part-2", []string{"глава", "3", "page42", "и", "part", "2"}},
		{"underscore separates", "snake_case", []string{"snake", "case"}},
		{"empty", "", nil},
		{"only punctuation", "...!?", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Tokenize(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestTokenize_DecomposedLetterStaysInWord(t *testing.T) {
	decomposed := "мои\u0306" // "мой" with a combining breve
	got := Tokenize(decomposed + " кра\u0439")
	want := []string{"мо\u0439", "кра\u0439"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestTokenize_UncomposableMarkSeparates(t *testing.T) {
	// U+0332 has no precomposed form, so it splits the word.
	got := Tokenize("ca\u0332t mat")
	want := []string{"ca", "t", "mat"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestScore_DistinctOverlap(t *testing.T) {
	q := TokenSet("cat cat cat mat")
	if got := Score("the cat sat on the mat with another cat", q); got != 2 {
		t.Errorf("expected 2 distinct overlaps, got %d", got)
	}
}

func TestScore_CyrillicCaseInsensitive(t *testing.T) {
	if got := Score("Рельсы пели", TokenSet("рельсы ПЕЛИ")); got != 2 {
		t.Errorf("expected score 2, got %d", got)
	}
}

func TestScore_EmptyInputs(t *testing.T) {
	if got := Score("", TokenSet("anything")); got != 0 {
		t.Errorf("expected 0 for empty text, got %d", got)
	}
	if got := Score("some text", TokenSet("")); got != 0 {
		t.Errorf("expected 0 for empty question, got %d", got)
	}
}

func TestSelect_NoChapters(t *testing.T) {
	for _, q := range []string{"", "anything", "рельсы"} {
		res := Select(doc(), q, 100)
		if res.Context != "" {
			t.Errorf("question %q: expected empty context, got %q", q, res.Context)
		}
		if res.Used == nil || len(res.Used) != 0 {
			t.Errorf("question %q: expected empty used list, got %v", q, res.Used)
		}
	}
}

func TestSelect_TokenOverlapOrdering(t *testing.T) {
	d := doc(
		book.Chapter{Title: "B", Text: "dogs bark loudly at night"},
		book.Chapter{Title: "A", Text: "the cat sat on the mat"},
	)
	question := "Where did the cat sit?"

	ranked := Rank(d.Chapters, question)
	if ranked[0].Chapter.Title != "A" || ranked[0].Score <= ranked[1].Score {
		t.Fatalf("expected A to outrank B, got %+v", ranked)
	}

	res := Select(d, question, DefaultMaxChars)
	if !reflect.DeepEqual(res.Used, []string{"A", "B"}) {
		t.Errorf("expected used [A B], got %v", res.Used)
	}
	if !strings.HasPrefix(res.Context, "### A\nthe cat sat on the mat") {
		t.Errorf("expected context to start with chapter A, got %q", res.Context)
	}
}

func TestSelect_TiesKeepDocumentOrder(t *testing.T) {
	d := doc(
		book.Chapter{Title: "First", Text: "a lantern in the fog"},
		book.Chapter{Title: "Second", Text: "the lantern went out"},
		book.Chapter{Title: "Third", Text: "lantern lantern lantern"},
	)
	res := Select(d, "lantern", DefaultMaxChars)
	if !reflect.DeepEqual(res.Used, []string{"First", "Second"}) {
		t.Errorf("expected [First Second], got %v", res.Used)
	}
}

func TestSelect_NoOverlapFallsBackToPosition(t *testing.T) {
	d := doc(
		book.Chapter{Title: "One", Text: "alpha"},
		book.Chapter{Title: "Two", Text: "beta"},
		book.Chapter{Title: "Three", Text: "gamma"},
	)
	for _, q := range []string{"", "zzz"} {
		res := Select(d, q, DefaultMaxChars)
		if !reflect.DeepEqual(res.Used, []string{"One", "Two"}) {
			t.Errorf("question %q: expected [One Two], got %v", q, res.Used)
		}
		if !strings.Contains(res.Context, "alpha") {
			t.Errorf("question %q: expected first chapter text in context, got %q", q, res.Context)
		}
	}
}

func TestSelect_SingleChapterNoOverlap(t *testing.T) {
	d := doc(book.Chapter{Title: "Intro", Text: "hello world"})
	res := Select(d, "xyz", DefaultMaxChars)
	if !reflect.DeepEqual(res.Used, []string{"Intro"}) {
		t.Errorf("expected used [Intro], got %v", res.Used)
	}
	if !strings.Contains(res.Context, "hello world") {
		t.Errorf("expected context to contain chapter text, got %q", res.Context)
	}
}

func TestSelect_BudgetStopsBeforeOverflowingBlock(t *testing.T) {
	d := doc(
		book.Chapter{Title: "Short", Text: "river boat"},
		book.Chapter{Title: "Long", Text: "river " + strings.Repeat("x", 200)},
	)
	res := Select(d, "river boat", 50)
	if res.Context != "### Short\nriver boat" {
		t.Errorf("expected only the first block, got %q", res.Context)
	}
	if !reflect.DeepEqual(res.Used, []string{"Short", "Long"}) {
		t.Errorf("expected used to list both selected chapters, got %v", res.Used)
	}
}

func TestSelect_ForcesFirstChapterWhenNothingFits(t *testing.T) {
	d := doc(
		book.Chapter{Title: "Opening", Text: strings.Repeat("fog ", 50)},
		book.Chapter{Title: "Harbor", Text: "ships " + strings.Repeat("harbor ", 50)},
	)
	res := Select(d, "ships", 20)
	if res.Context == "" {
		t.Fatal("expected a non-empty context")
	}
	if !strings.HasPrefix(res.Context, "### Opening") {
		t.Errorf("expected the first document chapter to be forced in, got %q", res.Context)
	}
	if n := utf8.RuneCountInString(res.Context); n != 20 {
		t.Errorf("expected context truncated to 20 chars, got %d", n)
	}
	if !reflect.DeepEqual(res.Used, []string{"Harbor", "Opening"}) {
		t.Errorf("expected used in rank order, got %v", res.Used)
	}
}

func TestSelect_BudgetBound(t *testing.T) {
	d := doc(
		book.Chapter{Title: "Глава 1", Text: strings.Repeat("Рельсы пели всю ночь. ", 40)},
		book.Chapter{Title: "Глава 2", Text: strings.Repeat("Поезд ушёл. ", 40)},
		book.Chapter{Title: "", Text: ""},
	)
	for _, max := range []int{1, 5, 17, 100, 600, DefaultMaxChars} {
		res := Select(d, "рельсы поезд", max)
		if n := utf8.RuneCountInString(res.Context); n > max {
			t.Errorf("max=%d: context has %d chars", max, n)
		}
		if res.Context == "" {
			t.Errorf("max=%d: expected non-empty context", max)
		}
	}
}

func TestSelect_DefaultBudget(t *testing.T) {
	d := doc(book.Chapter{Title: "Huge", Text: strings.Repeat("слово ", 3000)})
	res := Select(d, "слово", 0)
	if n := utf8.RuneCountInString(res.Context); n != DefaultMaxChars {
		t.Errorf("expected context cut to %d chars, got %d", DefaultMaxChars, n)
	}
}

func TestSelect_UntitledPlaceholder(t *testing.T) {
	d := doc(book.Chapter{Title: "  ", Text: "  body text  "})
	res := Select(d, "body", DefaultMaxChars)
	if res.Context != "### Untitled\nbody text" {
		t.Errorf("unexpected context %q", res.Context)
	}
	if !reflect.DeepEqual(res.Used, []string{"Untitled"}) {
		t.Errorf("expected [Untitled], got %v", res.Used)
	}
}

func TestSelect_Idempotent(t *testing.T) {
	d := doc(
		book.Chapter{Title: "A", Text: "moon and stars"},
		book.Chapter{Title: "B", Text: "sun and sky"},
		book.Chapter{Title: "C", Text: "stars above the sea"},
	)
	first := Select(d, "stars sea", 40)
	second := Select(d, "stars sea", 40)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestAssemble_JoinedLengthCountsSeparator(t *testing.T) {
	ranked := []Ranked{
		{Chapter: book.Chapter{Title: "A", Text: "xx"}}, // "### A\nxx" = 8
		{Chapter: book.Chapter{Title: "B", Text: "yy"}}, // +1 newline +8
	}
	if got := Assemble(ranked, 16); len(got) != 1 {
		t.Errorf("expected 1 block within 16 chars, got %d", len(got))
	}
	if got := Assemble(ranked, 17); len(got) != 2 {
		t.Errorf("expected 2 blocks within 17 chars, got %d", len(got))
	}
}

func TestSelect_ConcurrentCallsShareDocument(t *testing.T) {
	d := doc(
		book.Chapter{Title: "Маяк", Text: strings.Repeat("Смотритель зажёг маяк. ", 20)},
		book.Chapter{Title: "Шторм", Text: strings.Repeat("Шторм разбил стекло. ", 20)},
		book.Chapter{Title: "Утро", Text: "Лодка вернулась."},
	)
	questions := []string{"шторм", "маяк", "лодка", "", "zzz"}
	want := make([]Result, len(questions))
	for i, q := range questions {
		want[i] = Select(d, q, 120)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 50*len(questions))
	for range 50 {
		for i, q := range questions {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if got := Select(d, q, 120); !reflect.DeepEqual(got, want[i]) {
					errs <- q
				}
			}()
		}
	}
	wg.Wait()
	close(errs)
	for q := range errs {
		t.Errorf("question %q: concurrent result differs from sequential one", q)
	}
	if d.Chapters[0].Title != "Маяк" || d.Chapters[1].Title != "Шторм" {
		t.Error("Select reordered the shared document")
	}
}
