package chain

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultAttempts bounds submission retries, matching the nonce-conflict
	// policy: fetch a fresh pending nonce, try, back off, at most 3 times.
	DefaultAttempts = 3
	DefaultBackoff  = 2 * time.Second
)

// Retry is a bounded-retry combinator. Only errors accepted by Retryable are
// retried; anything else aborts immediately and is surfaced to the caller.
type Retry struct {
	Attempts  int
	Backoff   time.Duration
	Retryable func(error) bool
}

// NonceRetry returns the standard policy for transaction submission: up to 3
// attempts, 2s apart, retrying stale-nonce rejections only.
func NonceRetry() Retry {
	return Retry{
		Attempts:  DefaultAttempts,
		Backoff:   DefaultBackoff,
		Retryable: IsNonceConflict,
	}
}

// Do runs op until it succeeds, fails non-retryably, exhausts the attempt
// budget, or the context is cancelled. The backoff sleep respects ctx.
func (r Retry) Do(ctx context.Context, op func() error) error {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if r.Retryable == nil || !r.Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		select {
		case <-time.After(r.Backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", attempts, err)
}
