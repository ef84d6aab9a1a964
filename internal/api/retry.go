package api

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy configures Retry. Zero values fall back to DefaultRetryPolicy.
type RetryPolicy struct {
	Attempts int
	Base     time.Duration
	// Sleep waits for d or until ctx is done. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy is three attempts with a one second base delay.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Base: time.Second}

// Retry calls fn until it succeeds, the attempts are exhausted, ctx is done,
// or fn returns a 4xx *Error. The delay before attempt i+1 is Base * 2^i.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	if policy.Attempts <= 0 {
		policy.Attempts = DefaultRetryPolicy.Attempts
	}
	if policy.Base <= 0 {
		policy.Base = DefaultRetryPolicy.Base
	}
	if policy.Sleep == nil {
		policy.Sleep = sleepContext
	}
	var zero T
	var lastErr error
	for i := 0; i < policy.Attempts; i++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.ClientError() {
			return zero, err
		}
		if i == policy.Attempts-1 {
			break
		}
		if err := policy.Sleep(ctx, policy.Base<<i); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
