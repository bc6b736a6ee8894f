package chunker

import (
	"strings"
	"testing"

	"github.com/dgallion1/bookplay/internal/doctree"
)

func TestChunkTree_SmallTreeFitsOneChunk(t *testing.T) {
	tree := &doctree.DocTree{
		Title: "Small",
		Children: []*doctree.DocNode{
			{
				Title: "Section",
				Text:  strings.Repeat("word ", 200), // 1000 chars
			},
		},
	}

	cfg := Config{
		ChunkSize:    1500,
		ChunkOverlap: 200,
		MinChunk:     50,
	}
	chunks := ChunkTree(tree, cfg)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Index != 0 {
		t.Errorf("expected index 0, got %d", chunks[0].Index)
	}
	if !strings.Contains(chunks[0].Text, "word") {
		t.Errorf("expected chunk text to contain 'word', got %q", chunks[0].Text)
	}
}

func TestChunkTree_LargeTreeRequiresSplitting(t *testing.T) {
	largeText := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 300)

	tree := &doctree.DocTree{
		Title: "Large",
		Children: []*doctree.DocNode{
			{
				Title: "Big Section",
				Text:  largeText,
			},
		},
	}

	cfg := Config{
		ChunkSize:    500,
		ChunkOverlap: 50,
		MinChunk:     10,
	}
	chunks := ChunkTree(tree, cfg)

	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks for large text, got %d", len(chunks))
	}

	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d: expected index %d, got %d", i, i, c.Index)
		}
		if n := Len(c.Text); n > cfg.ChunkSize {
			t.Errorf("chunk %d: %d chars exceeds size %d", i, n, cfg.ChunkSize)
		}
	}
}

func TestChunkTree_BreadcrumbPropagation(t *testing.T) {
	tree := &doctree.DocTree{
		Title: "Doc",
		Children: []*doctree.DocNode{
			{
				Title: "Chapter 1",
				Children: []*doctree.DocNode{
					{
						Title: "Section 1.1",
						Text:  strings.Repeat("content ", 200),
					},
				},
			},
		},
	}

	cfg := Config{
		ChunkSize:    2000,
		ChunkOverlap: 100,
		MinChunk:     10,
	}
	chunks := ChunkTree(tree, cfg)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}

	bc := chunks[0].Breadcrumb
	want := []string{"Chapter 1", "Section 1.1"}
	if len(bc) != len(want) {
		t.Fatalf("expected breadcrumb %v, got %v", want, bc)
	}
	for i := range want {
		if bc[i] != want[i] {
			t.Errorf("breadcrumb[%d]: expected %q, got %q", i, want[i], bc[i])
		}
	}
}

func TestChunkTree_BreadcrumbIsolation(t *testing.T) {
	tree := &doctree.DocTree{
		Title: "Doc",
		Children: []*doctree.DocNode{
			{Title: "A", Text: strings.Repeat("alpha ", 200)},
			{Title: "B", Text: strings.Repeat("beta ", 200)},
		},
	}

	cfg := Config{
		ChunkSize:    2000,
		ChunkOverlap: 100,
		MinChunk:     10,
	}
	chunks := ChunkTree(tree, cfg)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	if len(chunks[0].Breadcrumb) != 1 || chunks[0].Breadcrumb[0] != "A" {
		t.Errorf("chunk 0 breadcrumb: expected [A], got %v", chunks[0].Breadcrumb)
	}
	if len(chunks[1].Breadcrumb) != 1 || chunks[1].Breadcrumb[0] != "B" {
		t.Errorf("chunk 1 breadcrumb: expected [B], got %v", chunks[1].Breadcrumb)
	}
}

func TestChunkTree_MinChunkFiltering(t *testing.T) {
	tree := &doctree.DocTree{
		Title: "Tiny",
		Children: []*doctree.DocNode{
			{Title: "Short", Text: "Hi"},
		},
	}

	cfg := Config{
		ChunkSize:    1500,
		ChunkOverlap: 200,
		MinChunk:     100,
	}
	chunks := ChunkTree(tree, cfg)

	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks (below MinChunk), got %d", len(chunks))
	}
}

func TestChunkTree_EmptyTree(t *testing.T) {
	tree := &doctree.DocTree{Title: "Empty"}
	chunks := ChunkTree(tree, DefaultConfig())
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks, got %d", len(chunks))
	}
}

func TestChunkTree_DefaultConfigFallback(t *testing.T) {
	tree := &doctree.DocTree{
		Title: "Doc",
		Children: []*doctree.DocNode{
			{Text: strings.Repeat("word ", 200)},
		},
	}
	chunks := ChunkTree(tree, Config{})
	if len(chunks) < 1 {
		t.Errorf("expected at least 1 chunk with zero config (defaults applied), got %d", len(chunks))
	}
}

func TestSplitText_RespectsSize(t *testing.T) {
	text := strings.Repeat("Рельсы пели всю ночь. ", 120) + "\n\n" + strings.Repeat("x", 900)
	for _, size := range []int{50, 200, 1200} {
		chunks := SplitText(text, size, 20)
		if len(chunks) == 0 {
			t.Fatalf("size=%d: expected chunks", size)
		}
		for i, c := range chunks {
			if n := Len(c); n > size {
				t.Errorf("size=%d chunk %d: %d chars", size, i, n)
			}
		}
	}
}

func TestSplitText_Overlap(t *testing.T) {
	var words []string
	for i := 0; i < 60; i++ {
		words = append(words, string(rune('a'+i%26))+string(rune('a'+i/26))+"x")
	}
	text := strings.Join(words, " ")

	chunks := SplitText(text, 50, 10)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		cur := strings.Fields(chunks[i])
		if prev[len(prev)-1] != cur[1] || prev[len(prev)-2] != cur[0] {
			t.Errorf("chunk %d does not start with the tail of chunk %d: %q / %q", i, i-1, chunks[i-1], chunks[i])
		}
	}
}

func TestSplitText_NoOverlap(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	chunks := SplitText(text, 15, 0)
	if got := strings.Join(chunks, " "); got != text {
		t.Errorf("expected chunks to rejoin to the input, got %q", got)
	}
}

func TestSplitText_Empty(t *testing.T) {
	if chunks := SplitText("   \n\n  ", 100, 10); len(chunks) != 0 {
		t.Errorf("expected no chunks, got %v", chunks)
	}
	if chunks := SplitText("text", 0, 0); chunks != nil {
		t.Errorf("expected nil for zero size, got %v", chunks)
	}
}

func TestPack(t *testing.T) {
	paras := []string{"aaaa", "bbbb", "cccc", strings.Repeat("d", 20), "ee"}
	groups := Pack(paras, 10)

	want := [][]string{
		{"aaaa", "bbbb"},
		{"cccc"},
		{strings.Repeat("d", 20)},
		{"ee"},
	}
	if len(groups) != len(want) {
		t.Fatalf("expected %d groups, got %d: %v", len(want), len(groups), groups)
	}
	for i := range want {
		if strings.Join(groups[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("group %d: expected %v, got %v", i, want[i], groups[i])
		}
	}
}

func TestPack_Empty(t *testing.T) {
	if groups := Pack(nil, 10); len(groups) != 0 {
		t.Errorf("expected no groups, got %v", groups)
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Error("expected 0 tokens for empty text")
	}
	if EstimateTokens("a") != 1 {
		t.Error("expected at least 1 token for non-empty text")
	}
	if got := EstimateTokens("one two three"); got != 3 {
		t.Errorf("expected 3 tokens, got %d", got)
	}
}
