// Package library stores parsed books. The chat handler and the ingest
// pipeline depend only on the Repository interface.
package library

import (
	"context"
	"errors"

	"github.com/dgallion1/bookplay/internal/book"
)

// ErrNotFound is returned when no document has the requested ID.
var ErrNotFound = errors.New("document not found")

// Repository is a document store keyed by document ID.
type Repository interface {
	// Put inserts or replaces a document. The document must have an ID.
	Put(ctx context.Context, doc book.Document) error
	Get(ctx context.Context, id string) (book.Document, error)
	// List returns summaries, newest first.
	List(ctx context.Context) ([]book.Summary, error)
	Delete(ctx context.Context, id string) error
	// FindByHash returns the ID of a document with the given content hash.
	FindByHash(ctx context.Context, hash string) (string, bool, error)
}
