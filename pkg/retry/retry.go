// Package retry wraps a single outbound operation with bounded exponential
// backoff. Only rate-limit failures are retried; every other error returns
// immediately.
package retry

import (
	"context"
	"time"

	"github.com/agentstation/propsync/pkg/constants"
	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/logging"
)

// Operation is a single attempt of a retried call.
type Operation func(ctx context.Context) error

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy is an explicit retry policy.
type Policy struct {
	// Name labels the operation in logs and errors.
	Name string

	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the delay before the first retry; it doubles per attempt.
	BaseDelay time.Duration

	// MaxDelay caps every wait, including a server supplied Retry-After.
	MaxDelay time.Duration

	// Sleep waits between attempts. Nil uses a context-aware timer.
	Sleep SleepFunc
}

// Default returns the policy used for propagation writes.
func Default() Policy {
	return Policy{
		Name:        "propagate",
		MaxAttempts: constants.MaxRetries,
		BaseDelay:   constants.RetryBackoff,
		MaxDelay:    constants.MaxRetryBackoff,
	}
}

// Delay returns the wait before retry number attempt (zero based). A
// Retry-After carried by err wins when larger; the result never exceeds
// MaxDelay.
func (p Policy) Delay(attempt int, err error) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt && (p.MaxDelay <= 0 || d < p.MaxDelay); i++ {
		d *= 2
	}
	var apiErr *errors.APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > d {
		d = apiErr.RetryAfter
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Do runs op until it succeeds, fails with a non rate-limit error, or the
// attempts are exhausted. Exhaustion returns *errors.RetryError wrapping the
// last error.
func (p Policy) Do(ctx context.Context, op Operation) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	logger := logging.FromContext(ctx)

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !errors.IsRateLimited(lastErr) {
			return lastErr
		}
		if attempt == attempts-1 {
			break
		}

		delay := p.Delay(attempt, lastErr)
		logger.Debug().
			Str("operation", p.Name).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("Rate limited, backing off")
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}

	logger.Warn().
		Err(lastErr).
		Str("operation", p.Name).
		Int("attempts", attempts).
		Msg("Retries exhausted")
	return &errors.RetryError{Operation: p.Name, Attempts: attempts, Err: lastErr}
}

// WithRetry runs op under the policy and reports success. Failures are
// logged, never returned.
func (p Policy) WithRetry(ctx context.Context, op Operation) bool {
	if err := p.Do(ctx, op); err != nil {
		logging.FromContext(ctx).Error().
			Err(err).
			Str("operation", p.Name).
			Msg("Operation failed")
		return false
	}
	return true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
