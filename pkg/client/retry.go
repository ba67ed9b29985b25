package client

import (
	"context"
	"time"
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// BackoffUnit is the base of the exponential backoff: retry n (0-based)
	// waits 2^n units.
	BackoffUnit time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  3,
		BackoffUnit: 1 * time.Second,
	}
}

// MaxAttempts returns the total number of attempts including the first one.
func (r RetryConfig) MaxAttempts() int {
	return r.MaxRetries + 1
}

// Backoff returns the wait before retry number retry (0-based) of an attempt
// that failed with errorClass. Timeouts are retried immediately.
func (r RetryConfig) Backoff(errorClass ErrorClass, retry int) time.Duration {
	if errorClass == ErrorClassTimeout {
		return 0
	}
	return r.BackoffUnit << uint(retry)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
