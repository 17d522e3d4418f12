package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Retry configuration
const (
	maxRetries       = 3
	initialBackoff   = 500 * time.Millisecond
	maxBackoff       = 5 * time.Second
	operationTimeout = 30 * time.Second
)

// retryWithBackoff runs fn until it succeeds, fails with a permanent error or
// runs out of attempts. Each attempt gets its own operationTimeout deadline.
func retryWithBackoff(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: cancelled after %d attempts: %w", operation, attempt, lastErr)
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, operationTimeout)
		err := fn(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s: cancelled: %w", operation, ctx.Err())
		}
		lastErr = err
		if !isRetryableError(err) {
			return fmt.Errorf("%s: %w", operation, err)
		}
	}

	return fmt.Errorf("%s: failed after %d attempts: %w", operation, maxRetries+1, lastErr)
}

// isRetryableError checks if a store error is likely temporary.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	// SQLITE_BUSY / SQLITE_LOCKED and friends
	return strings.Contains(errStr, "locked") ||
		strings.Contains(errStr, "busy") ||
		strings.Contains(errStr, "i/o") ||
		strings.Contains(errStr, "temporary")
}
