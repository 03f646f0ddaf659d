package utils

import (
	"context"
	"time"
)

// Retry calls operation until it succeeds, fails with an error that retryable
// rejects, or attempts run out. It waits delay between attempts and stops
// early when ctx is done. The last error is returned.
func Retry(ctx context.Context, attempts int, delay time.Duration, retryable func(error) bool, operation func() error) error {
	var lastErr error
	for i := 0; i < max(attempts, 1); i++ {
		lastErr = operation()
		if lastErr == nil || !retryable(lastErr) {
			return lastErr
		}

		Logger.Warn().
			Err(lastErr).
			Int("attempt", i+1).
			Int("maxAttempts", attempts).
			Msg("operation failed, retrying")

		if i == attempts-1 || ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delay):
		}
	}
	return lastErr
}
