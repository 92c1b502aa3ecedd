package pipeline

import (
	"context"
	"time"
)

// RetryPolicy bounds repeated attempts against a flaky backend. Zero values
// degrade to a single attempt with no backoff, which is what tests want.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetry matches the behaviour expected of the image stage.
var DefaultRetry = RetryPolicy{MaxAttempts: 3, Backoff: 2 * time.Second}

// Do runs fn until it succeeds, the attempts are exhausted, or the context is
// done. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 && p.Backoff > 0 {
			select {
			case <-time.After(p.Backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}
