// Package llm talks to an OpenAI-compatible chat-completions endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/sync/semaphore"
)

// Message roles accepted by Complete.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyReply is returned when the endpoint answers without any choices.
var ErrEmptyReply = errors.New("empty reply from model")

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer produces a model reply for a conversation.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Config configures a Client.
type Config struct {
	BaseURL       string
	APIKey        string
	Model         string
	Timeout       time.Duration
	MaxConcurrent int
	HTTPClient    *http.Client
}

// Client calls the chat-completions API. At most MaxConcurrent calls are
// in flight; latencies are recorded in Stats.
type Client struct {
	api   openai.Client
	model string
	sem   *semaphore.Weighted
	stats *LLMStats
	log   *slog.Logger
}

func NewClient(cfg Config, stats *LLMStats, log *slog.Logger) *Client {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 180 * time.Second
	}
	if stats == nil {
		stats = NewLLMStats(time.Hour)
	}
	if log == nil {
		log = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
		// Retries happen in the callers with Backoff.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Client{
		api:   openai.NewClient(opts...),
		model: cfg.Model,
		sem:   semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		stats: stats,
		log:   log,
	}
}

// Stats returns the latency window shared with the stats endpoint.
func (c *Client) Stats() *LLMStats {
	return c.stats
}

// Complete sends messages and returns the first choice's content.
// Rate limiting and server errors come back as *RetryableError.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.sem.Release(1)

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: toParams(messages),
	}

	start := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, params)
	elapsed := time.Since(start)
	c.stats.Record(elapsed.Milliseconds(), err != nil)

	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
				return "", &RetryableError{StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
			}
			return "", fmt.Errorf("llm api status %d: %w", apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("llm api: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}

	c.log.Debug("llm call complete", "model", c.model, "duration_ms", elapsed.Milliseconds(), "messages", len(messages))
	return resp.Choices[0].Message.Content, nil
}

func toParams(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// UpstreamError wraps a model call that failed after retries. Details is
// shown to the user.
type UpstreamError struct {
	Details string
	Err     error
}

func (e *UpstreamError) Error() string {
	return "upstream model failed: " + e.Details
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
