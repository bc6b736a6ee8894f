package game

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/bookplay/internal/llm"
)

type fakeLLM struct {
	replies []string
	errs    []error
	got     [][]llm.Message
}

func (f *fakeLLM) Complete(_ context.Context, msgs []llm.Message) (string, error) {
	i := len(f.got)
	f.got = append(f.got, msgs)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return "", nil
}

func newService(f *fakeLLM) *Service {
	s := NewService(f, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.wait = func(int) time.Duration { return 0 }
	return s
}

func TestGenerate_EmptyText(t *testing.T) {
	f := &fakeLLM{}
	for _, text := range []string{"", "   \n\t"} {
		if _, err := newService(f).Generate(context.Background(), text); !errors.Is(err, ErrEmptyText) {
			t.Errorf("text %q: expected ErrEmptyText, got %v", text, err)
		}
	}
	if len(f.got) != 0 {
		t.Errorf("expected no model calls, got %d", len(f.got))
	}
}

func TestGenerate_ReturnsUnwrappedCode(t *testing.T) {
	f := &fakeLLM{replies: []string{"```html\n<html><canvas></canvas></html>\n```"}}
	code, err := newService(f).Generate(context.Background(), "Лиса нашла фонарь.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != "<html><canvas></canvas></html>" {
		t.Errorf("unexpected code %q", code)
	}
	if len(f.got) != 1 || len(f.got[0]) != 1 || f.got[0][0].Role != llm.RoleUser {
		t.Fatalf("expected a single user message, got %+v", f.got)
	}
	if !strings.Contains(f.got[0][0].Content, "Лиса нашла фонарь.") {
		t.Errorf("prompt does not include the book text")
	}
}

func TestGenerate_RetriesTransientErrors(t *testing.T) {
	busy := &llm.RetryableError{StatusCode: 503, Message: "busy"}
	f := &fakeLLM{errs: []error{busy, nil}, replies: []string{"", "<html></html>"}}
	code, err := newService(f).Generate(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != "<html></html>" || len(f.got) != 2 {
		t.Errorf("expected success on second attempt, got code=%q calls=%d", code, len(f.got))
	}
}

func TestGenerate_UpstreamError(t *testing.T) {
	f := &fakeLLM{errs: []error{errors.New("llm api status 401: invalid key")}}
	_, err := newService(f).Generate(context.Background(), "text")
	var up *llm.UpstreamError
	if !errors.As(err, &up) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if !strings.Contains(up.Details, "invalid key") {
		t.Errorf("expected details to carry upstream message, got %q", up.Details)
	}
}

func TestGenerate_EmptyReply(t *testing.T) {
	f := &fakeLLM{replies: []string{"   "}}
	_, err := newService(f).Generate(context.Background(), "text")
	var up *llm.UpstreamError
	if !errors.As(err, &up) || !errors.Is(err, llm.ErrEmptyReply) {
		t.Fatalf("expected UpstreamError wrapping ErrEmptyReply, got %v", err)
	}
}
