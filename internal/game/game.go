// Package game turns book text into a self-contained HTML5 canvas game.
package game

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/bookplay/internal/llm"
)

// ErrEmptyText is returned for blank input.
var ErrEmptyText = errors.New("text is empty")

// Service generates games.
type Service struct {
	llm  llm.Completer
	log  *slog.Logger
	wait func(int) time.Duration
}

func NewService(c llm.Completer, log *slog.Logger) *Service {
	return &Service{llm: c, log: log}
}

// Generate asks the model for a game based on text and returns its HTML.
func (s *Service) Generate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	messages := []llm.Message{{Role: llm.RoleUser, Content: llm.BuildGamePrompt(text)}}
	start := time.Now()
	reply, err := llm.CompleteWithRetry(ctx, s.llm, messages, s.log, s.wait)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		s.log.Error("game generation failed", "error", err, "text_chars", len([]rune(text)))
		return "", &llm.UpstreamError{Details: err.Error(), Err: err}
	}

	code := llm.ExtractHTML(reply)
	if code == "" {
		return "", &llm.UpstreamError{Details: "model returned no code", Err: llm.ErrEmptyReply}
	}
	s.log.Info("game generated", "code_bytes", len(code), "duration_ms", time.Since(start).Milliseconds())
	return code, nil
}
