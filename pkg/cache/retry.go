package cache

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/modhaus/modlayout/pkg/errors"
)

// RetryableError marks a transient failure, such as a dropped connection or
// a 5xx from a catalogue endpoint.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable marks err as transient. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err was marked with Retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return stderrors.As(err, &re)
}

// Backoff controls RetryWithBackoff.
type Backoff struct {
	Attempts int
	Delay    time.Duration
}

// DefaultBackoff is three attempts starting one second apart, doubling.
var DefaultBackoff = Backoff{Attempts: 3, Delay: time.Second}

// RetryWithBackoff calls fn under DefaultBackoff.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return DefaultBackoff.Retry(ctx, fn)
}

// Retry calls fn until it succeeds, returns an error not marked Retryable,
// or runs out of attempts. Exhausted retries surface as NETWORK_ERROR and a
// cancelled context as TIMEOUT, each wrapping the last failure.
func (b Backoff) Retry(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay
	var last error
	for i := range attempts {
		last = fn()
		if last == nil || !IsRetryable(last) {
			return last
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(errors.ErrCodeTimeout, stderrors.Join(ctx.Err(), last), "gave up after %d attempts", i+1)
		case <-time.After(delay):
			delay *= 2
		}
	}
	return errors.Wrap(errors.ErrCodeNetwork, last, "gave up after %d attempts", attempts)
}
