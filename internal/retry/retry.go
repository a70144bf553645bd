// Package retry provides an explicit retry policy applied uniformly to provider calls.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy controls how many times a call is attempted and how long to wait in between
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first (values < 1 mean 1)
	MaxAttempts int
	// Backoff is the wait after the first failed attempt
	Backoff time.Duration
	// Multiplier grows the backoff after each failure (values <= 1 mean constant backoff)
	Multiplier float64
	// MaxBackoff caps the wait of an exponential policy
	MaxBackoff time.Duration
	// OnRetry is called after a failed attempt that will be retried
	OnRetry func(attempt int, err error)
}

// SectionScoring is used for the LLM section similarity call: two attempts, half a second apart
var SectionScoring = Policy{MaxAttempts: 2, Backoff: 500 * time.Millisecond}

// Summarization is used for job description summarization
var Summarization = Policy{MaxAttempts: 3, Backoff: time.Second, Multiplier: 2, MaxBackoff: 5 * time.Second}

// Once performs a single attempt
var Once = Policy{MaxAttempts: 1}

// Permanent wraps err so that Do stops retrying immediately
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// WithOnRetry returns a copy of the policy with the retry hook set
func (p Policy) WithOnRetry(fn func(attempt int, err error)) Policy {
	p.OnRetry = fn
	return p
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// backOff builds the wait schedule: none, constant, or exponential without jitter
func (p Policy) backOff() backoff.BackOff {
	switch {
	case p.Backoff <= 0:
		return &backoff.ZeroBackOff{}
	case p.Multiplier > 1:
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = p.Backoff
		b.Multiplier = p.Multiplier
		b.RandomizationFactor = 0
		if p.MaxBackoff > 0 {
			b.MaxInterval = p.MaxBackoff
		}
		b.Reset()
		return b
	default:
		return backoff.NewConstantBackOff(p.Backoff)
	}
}

// Do calls fn until it succeeds, returns a permanent error, the attempts run out, or ctx is done
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	attempts := p.attempts()
	calls := 0
	var lastErr error

	operation := func() (T, error) {
		calls++
		result, err := fn(ctx)
		if err != nil {
			lastErr = err
		}
		return result, err
	}
	notify := func(err error, _ time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(calls, err)
		}
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify))
	if err == nil {
		return result, nil
	}

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return zero, perm.Unwrap()
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		if lastErr != nil && !errors.Is(lastErr, ctxErr) {
			return zero, fmt.Errorf("%w (last error: %v)", ctxErr, lastErr)
		}
		return zero, ctxErr
	}
	if attempts > 1 && calls == attempts {
		return zero, fmt.Errorf("after %d attempts: %w", attempts, err)
	}
	return zero, err
}

// DoWithFallback is Do that degrades to fallback instead of returning an error
func DoWithFallback[T any](ctx context.Context, p Policy, fallback T, fn func(ctx context.Context) (T, error)) T {
	result, err := Do(ctx, p, fn)
	if err != nil {
		return fallback
	}
	return result
}
