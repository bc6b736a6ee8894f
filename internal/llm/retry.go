package llm

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"
)

// MaxRetries bounds attempts for a single completion.
const MaxRetries = 3

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// CompleteWithRetry calls c up to MaxRetries times, sleeping with Backoff
// between retryable failures. wait replaces the sleep when non-nil.
func CompleteWithRetry(ctx context.Context, c Completer, messages []Message, log *slog.Logger, wait func(int) time.Duration) (string, error) {
	if wait == nil {
		wait = Backoff
	}
	var (
		reply   string
		lastErr error
	)
	for attempt := range MaxRetries {
		reply, lastErr = c.Complete(ctx, messages)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		if attempt == MaxRetries-1 {
			break
		}
		if log != nil {
			log.Warn("retryable llm error", "attempt", attempt, "error", lastErr)
		}
		select {
		case <-time.After(wait(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return reply, lastErr
}
