package browser

import (
	"context"
	"math/rand"
	"time"

	"github.com/ternarybob/arbor"
)

// RetryPolicy retries transient step failures with exponential backoff.
// Jitter is added on top of the computed backoff, never subtracted, so
// total wait time always covers the base schedule.
type RetryPolicy struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultRetryPolicy matches the production login retry schedule.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		InitialBackoff:    2 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Do runs fn up to MaxAttempts times. Fatal step errors and context
// cancellation stop the loop immediately; the last error is returned
// when every attempt fails. onFailure, when non-nil, runs after every
// failed attempt including the last.
func (p RetryPolicy) Do(ctx context.Context, logger arbor.ILogger, fn func(ctx context.Context, attempt int) error, onFailure func(attempt int, err error)) error {
	backoff := p.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}

		if onFailure != nil {
			onFailure(attempt, lastErr)
		}

		if !IsRetryable(lastErr) {
			logger.Warn().
				Int("attempt", attempt).
				Str("kind", KindOf(lastErr)).
				Msg("Non-retryable failure, giving up")
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wait := backoff + time.Duration(rand.Int63n(int64(backoff)/4+1))
		logger.Warn().
			Int("attempt", attempt).
			Int("max_attempts", p.MaxAttempts).
			Str("backoff", wait.String()).
			Err(lastErr).
			Msg("Attempt failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		backoff = time.Duration(float64(backoff) * p.BackoffMultiplier)
		if backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}

	logger.Error().
		Int("attempts", p.MaxAttempts).
		Str("kind", KindOf(lastErr)).
		Msg("All attempts exhausted")
	return lastErr
}
