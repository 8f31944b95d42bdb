package syncer

import (
	"context"
	"time"

	"github.com/schemacat/schemacat/internal/remote"
)

const (
	// DefaultMaxAttempts is the retry ceiling per remote operation.
	DefaultMaxAttempts = 4
	// DefaultBaseBackoff is the first retry delay; subsequent delays
	// double.
	DefaultBaseBackoff = 250 * time.Millisecond
)

// RetryConfig configures retry behavior for remote operations.
type RetryConfig struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: DefaultMaxAttempts,
		BaseBackoff: DefaultBaseBackoff,
	}
}

// withRetry runs fn up to the attempt ceiling, backing off
// exponentially between transient failures. A retry-after hint from
// the store replaces the computed backoff verbatim. Non-transient
// errors and context cancellation fail immediately.
func withRetry(ctx context.Context, config RetryConfig, fn func() error) (int, error) {
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt, err
		}

		err := fn()
		if err == nil {
			return attempt + 1, nil
		}
		if !remote.IsTransient(err) {
			return attempt + 1, err
		}
		lastErr = err

		backoff := config.BaseBackoff * time.Duration(1<<uint(attempt))
		if hint, ok := remote.RetryAfterHint(err); ok {
			backoff = hint
		}

		select {
		case <-ctx.Done():
			return attempt + 1, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return config.MaxAttempts, lastErr
}
