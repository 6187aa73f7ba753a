// Package retry wraps fallible operations with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Classifier reports whether an error is worth another attempt.
type Classifier func(error) bool

// Policy parameterizes Do. The delay before attempt n+1 is BaseDelay * 2^(n-1).
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Retryable   Classifier
	Logger      *slog.Logger
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// newBackOff doubles from BaseDelay without jitter and never caps below the last wait.
func (p Policy) newBackOff() *backoff.ExponentialBackOff {
	return &backoff.ExponentialBackOff{
		InitialInterval:     p.BaseDelay,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         p.BaseDelay << p.attempts(),
	}
}

// Do runs op until it succeeds, returns a non-retryable error, or MaxAttempts is reached.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	attempts := p.attempts()

	calls := 0
	operation := func() (T, error) {
		calls++
		result, err := op(ctx)
		if err != nil && p.Retryable != nil && !p.Retryable(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}

	notify := func(err error, delay time.Duration) {
		if p.Logger != nil {
			p.Logger.Warn("retry backoff wait",
				"attempt", calls,
				"max_attempts", attempts,
				"delay_ms", delay.Milliseconds(),
				"error", err)
		}
	}

	var zero T
	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(p.newBackOff()),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
	switch {
	case err == nil:
		return result, nil
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return zero, fmt.Errorf("retry cancelled: %w", err)
	case p.Retryable != nil && !p.Retryable(err):
		return zero, err
	default:
		return zero, fmt.Errorf("failed after %d attempts: %w", calls, err)
	}
}
