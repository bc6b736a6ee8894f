package library

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/dgallion1/bookplay/internal/book"
)

// MemoryStore is an in-process Repository, used in tests and when no
// database path is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]book.Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]book.Document)}
}

func (s *MemoryStore) Put(_ context.Context, doc book.Document) error {
	if doc.ID == "" {
		return errors.New("put: document has no id")
	}
	doc.Chapters = append([]book.Chapter(nil), doc.Chapters...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (book.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return book.Document{}, ErrNotFound
	}
	doc.Chapters = append([]book.Chapter(nil), doc.Chapters...)
	return doc, nil
}

func (s *MemoryStore) List(_ context.Context) ([]book.Summary, error) {
	s.mu.RLock()
	out := make([]book.Summary, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, doc.Summarize())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

func (s *MemoryStore) FindByHash(_ context.Context, hash string) (string, bool, error) {
	if hash == "" {
		return "", false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, doc := range s.docs {
		if doc.ContentHash == hash {
			return id, true, nil
		}
	}
	return "", false, nil
}
