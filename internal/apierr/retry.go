package apierr

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig bounds the retry loop around one external call, typically the
// chat-completion request for one chunk. Chunks are rewritten strictly in
// order, so the loop retries a single chunk to completion instead of moving
// on and revisiting it.
//
// Out-of-range fields fall back to safe values: MaxRetries below zero means
// a single attempt, BaseDelay at or below zero becomes 1ms, MaxDelay at or
// below zero becomes BaseDelay.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// delay returns the backoff before retry number n (n >= 1), doubling from
// BaseDelay and capped at MaxDelay.
func (c RetryConfig) delay(n int) time.Duration {
	base := c.BaseDelay
	if base <= 0 {
		base = time.Millisecond
	}
	limit := c.MaxDelay
	if limit <= 0 {
		limit = base
	}
	d := base
	for i := 1; i < n; i++ {
		d *= 2
		if d >= limit {
			return limit
		}
	}
	return min(d, limit)
}

// RetryWithBackoff runs fn until it succeeds, shouldRetry rejects the
// error, or the attempt budget is spent, sleeping with exponential backoff
// between attempts and honoring ctx cancellation during the sleep.
//
// shouldRetry decides which classifications are worth another attempt:
// ErrRateLimit and ErrTimeout are transient, while quota and auth failures
// only waste the budget. The rewriter passes its isRetryable predicate here.
func RetryWithBackoff[T any](
	ctx context.Context,
	cfg RetryConfig,
	fn func() (T, error),
	shouldRetry func(error) bool,
) (T, error) {
	var zero T
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, cfg.delay(attempt)); err != nil {
				return zero, err
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !shouldRetry(err) {
			return zero, err
		}
	}

	return zero, fmt.Errorf("max retries (%d) exceeded: %w", retries, lastErr)
}

// sleep waits for d or until ctx is cancelled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
