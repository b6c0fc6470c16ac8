package tasks

import (
	"context"
	"time"

	"github.com/graymantle/playport/internal/shared"
)

// SleepFunc waits for the given duration or until the context is done.
// Tests inject a no-op implementation to avoid real delays.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryPolicy controls how transient failures are retried: exponential
// backoff starting at BaseDelay, multiplied by Multiplier each attempt,
// capped at CapDelay. MaxAttempts counts the initial attempt.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	CapDelay    time.Duration
}

// DefaultRetryPolicy returns the policy used when config does not override it.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		Multiplier:  2,
		CapDelay:    8 * time.Second,
	}
}

// Do runs op, retrying while the returned error is transient under the
// policy. Non-transient errors (auth, validation, cancellation) return
// immediately. The last error is returned when attempts are exhausted.
func (p RetryPolicy) Do(ctx context.Context, sleep SleepFunc, op func() error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if sleep == nil {
		sleep = waitSleep
	}

	delay := p.BaseDelay
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if !shared.IsTransient(err) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
		delay = time.Duration(float64(delay) * p.Multiplier)
		if p.CapDelay > 0 && delay > p.CapDelay {
			delay = p.CapDelay
		}
	}
	return err
}

// waitSleep blocks for d, honoring context cancellation.
func waitSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
