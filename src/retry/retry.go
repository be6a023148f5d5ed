// Package retry provides a shared call-with-retry wrapper used by every
// outbound network call that tolerates transient failure.
package retry

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Config bounds a retried call. Delay grows linearly: attempt n sleeps
// Delay*n before running.
type Config struct {
	Attempts int
	Delay    time.Duration
	Timeout  time.Duration // per-attempt; zero disables the deadline
}

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying; Do returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// Do runs fn up to cfg.Attempts times and returns the first success.
// The parent context cancels the whole loop, including backoff sleeps.
func Do[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(cfg.Delay * time.Duration(attempt)):
			}
		}

		attemptCtx := ctx
		cancel := func() {}
		if cfg.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		}

		result, err := fn(attemptCtx)
		cancel()
		if err == nil {
			return result, nil
		}
		var perm permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
	}

	return zero, errors.Wrapf(lastErr, "all %d attempts failed", attempts)
}
