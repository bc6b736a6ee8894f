package library

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/dgallion1/bookplay/internal/book"
	"github.com/dgallion1/bookplay/internal/parser"
)

//go:embed samples/*.md
var sampleFS embed.FS

// SamplePrefix starts the ID of every built-in sample document.
const SamplePrefix = "sample-"

// LoadSamples parses the embedded sample books.
func LoadSamples(maxChars int) ([]book.Document, error) {
	names, err := fs.Glob(sampleFS, "samples/*.md")
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}

	docs := make([]book.Document, 0, len(names))
	for _, name := range names {
		data, err := sampleFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		base := path.Base(name)
		tree, err := (&parser.MarkdownParser{}).Parse(bytes.NewReader(data), base)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		doc := book.FromTree(tree, maxChars)
		doc.ID = SamplePrefix + strings.TrimSuffix(base, path.Ext(base))
		doc.Source = base
		doc.Sample = true
		doc.ContentHash = book.ContentHash(doc.Text())
		docs = append(docs, doc)
	}
	return docs, nil
}

// SeedSamples stores every sample book that is not already present and
// returns how many were added. Running it again is a no-op.
func SeedSamples(ctx context.Context, repo Repository, maxChars int) (int, error) {
	docs, err := LoadSamples(maxChars)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, doc := range docs {
		_, err := repo.Get(ctx, doc.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return added, fmt.Errorf("check %s: %w", doc.ID, err)
		}
		doc.CreatedAt = time.Now().UTC()
		if err := repo.Put(ctx, doc); err != nil {
			return added, fmt.Errorf("store %s: %w", doc.ID, err)
		}
		added++
	}
	return added, nil
}
