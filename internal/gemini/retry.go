package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// withRetry calls fn up to attempts times, waiting between tries, as long as
// it fails with a rate limit error. Any other error is returned at once.
func withRetry[T any](ctx context.Context, logger *slog.Logger, attempts int, wait time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRateLimitError(err) {
			return zero, err
		}
		logger.Warn("gemini rate limited", "attempt", attempt, "max_attempts", attempts, "error", err)

		if attempt == attempts {
			break
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, fmt.Errorf("rate limited after %d attempts: %w", attempts, lastErr)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "resource_exhausted")
}
