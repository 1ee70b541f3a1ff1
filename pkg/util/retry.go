package util

import (
	"context"
	"time"

	"github.com/jpillora/backoff"
)

// NewBackoff returns an exponential backoff with jitter between min and max
func NewBackoff(min, max time.Duration) *backoff.Backoff {
	return &backoff.Backoff{
		Min:    min,
		Max:    max,
		Factor: 2,
		Jitter: true,
	}
}

// Retry runs op up to attempts times, sleeping b.Duration() between tries.
// It stops early when op succeeds, when retryable returns false for the
// error, or when ctx is done. A nil retryable retries every error.
func Retry(ctx context.Context, attempts int, b *backoff.Backoff, retryable func(error) bool, op func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	b.Reset()

	var err error
	for i := 0; i < attempts; i++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(b.Duration())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
