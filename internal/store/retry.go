package store

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// retryPolicy controls connection retries with exponential backoff and
// jitter. The zero value is not usable, use defaultRetryPolicy.
type retryPolicy struct {
	attempts       int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	multiplier     float64
	jitterFraction float64
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{
		attempts:       5,
		initialBackoff: 500 * time.Millisecond,
		maxBackoff:     10 * time.Second,
		multiplier:     2.0,
		jitterFraction: 0.25,
	}
}

// withRetry runs fn until it succeeds, the attempt budget runs out, or
// the context is canceled. Every error is treated as retryable: the
// only caller is database connection setup, where transient refusals
// during startup are the common case.
func withRetry(ctx context.Context, policy retryPolicy, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < policy.attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
		if attempt >= policy.attempts-1 {
			break
		}

		delay := policy.backoff(attempt)
		zap.L().Warn("store operation failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(lastErr))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}

func (p retryPolicy) backoff(attempt int) time.Duration {
	delay := float64(p.initialBackoff) * math.Pow(p.multiplier, float64(attempt))
	if delay > float64(p.maxBackoff) {
		delay = float64(p.maxBackoff)
	}
	if p.jitterFraction > 0 {
		jitter := delay * p.jitterFraction
		delay += (rand.Float64()*2 - 1) * jitter
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
