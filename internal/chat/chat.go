// Package chat answers questions about a book using the chapters the
// context selector picks for each question.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/bookplay/internal/book"
	"github.com/dgallion1/bookplay/internal/library"
	"github.com/dgallion1/bookplay/internal/llm"
	"github.com/dgallion1/bookplay/internal/retrieval"
)

// DefaultHistoryTurns is how many prior question/answer turns are
// forwarded.
const DefaultHistoryTurns = 6

var (
	ErrEmptyQuestion = errors.New("question is empty")
	ErrNoDocument    = errors.New("either document or doc_id is required")
)

// Request is one chat turn. The book is sent inline as Document or named
// by DocID.
type Request struct {
	Question string         `json:"question"`
	History  []llm.Message  `json:"history,omitempty"`
	Document *book.Document `json:"document,omitempty"`
	DocID    string         `json:"doc_id,omitempty"`
}

// Response is the model's answer plus the chapters chosen as context.
type Response struct {
	Answer string   `json:"answer"`
	Used   []string `json:"used"`
}

// Options tunes a Service.
type Options struct {
	MaxContextChars int
	// HistoryTurns is the number of prior turns forwarded. A turn is a
	// user message and the replies that follow it. Zero sends none;
	// negative selects DefaultHistoryTurns.
	HistoryTurns int
}

// Service runs document chat.
type Service struct {
	llm  llm.Completer
	repo library.Repository
	opts Options
	log  *slog.Logger
	wait func(int) time.Duration
}

func NewService(c llm.Completer, repo library.Repository, opts Options, log *slog.Logger) *Service {
	if opts.MaxContextChars <= 0 {
		opts.MaxContextChars = retrieval.DefaultMaxChars
	}
	if opts.HistoryTurns < 0 {
		opts.HistoryTurns = DefaultHistoryTurns
	}
	return &Service{llm: c, repo: repo, opts: opts, log: log}
}

// Resolve returns the inline document or loads req.DocID from the
// library.
func (s *Service) Resolve(ctx context.Context, req Request) (book.Document, error) {
	if req.Document != nil {
		doc := *req.Document
		doc.Normalize()
		return doc, nil
	}
	id := strings.TrimSpace(req.DocID)
	if id == "" {
		return book.Document{}, ErrNoDocument
	}
	if s.repo == nil {
		return book.Document{}, library.ErrNotFound
	}
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return book.Document{}, fmt.Errorf("load %s: %w", id, err)
	}
	return doc, nil
}

// Ask answers req.Question.
func (s *Service) Ask(ctx context.Context, req Request) (Response, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return Response{}, ErrEmptyQuestion
	}
	doc, err := s.Resolve(ctx, req)
	if err != nil {
		return Response{}, err
	}

	sel := retrieval.Select(doc, question, s.opts.MaxContextChars)
	messages := BuildMessages(doc.Title, sel.Context, req.History, question, s.opts.HistoryTurns)

	log := s.log.With("doc_id", doc.ID, "used", len(sel.Used))
	reply, err := llm.CompleteWithRetry(ctx, s.llm, messages, log, s.wait)
	if err != nil {
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		log.Error("chat completion failed", "error", err)
		return Response{}, &llm.UpstreamError{Details: err.Error(), Err: err}
	}

	log.Info("chat answered", "context_chars", len([]rune(sel.Context)), "history", len(messages)-2)
	return Response{Answer: strings.TrimSpace(reply), Used: sel.Used}, nil
}

// BuildMessages lays out a chat turn: the system prompt with the selected
// context, the history of the last turns turns, then the question.
func BuildMessages(title, excerpts string, history []llm.Message, question string, turns int) []llm.Message {
	recent := TrimHistory(history, turns)
	messages := make([]llm.Message, 0, len(recent)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: llm.BuildChatSystemPrompt(title, excerpts)})
	messages = append(messages, recent...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: question})
	return messages
}

// TrimHistory keeps the messages of the last n turns, counting a turn from
// each user message. Only user and assistant messages with content are
// kept, so callers cannot inject system messages.
func TrimHistory(history []llm.Message, n int) []llm.Message {
	if n <= 0 {
		return nil
	}
	kept := make([]llm.Message, 0, len(history))
	for _, m := range history {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if role != llm.RoleUser && role != llm.RoleAssistant {
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		kept = append(kept, llm.Message{Role: role, Content: m.Content})
	}
	users := 0
	for i := len(kept) - 1; i >= 0; i-- {
		if kept[i].Role != llm.RoleUser {
			continue
		}
		if users++; users == n {
			return kept[i:]
		}
	}
	return kept
}
