package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const maxDelay = 2 * time.Second

// Do executes fn with exponential backoff, doubling baseDelay up to a cap.
// The last error from fn is returned once attempts are exhausted.
func Do(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts <= 1 {
		return fn()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = baseDelay
	b.MaxInterval = maxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.Retry(fn, backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx))
}
