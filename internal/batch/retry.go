package batch

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperr"
)

// RetryPolicy bounds retries of network-class failures. Attempts counts the
// extra attempts after the first call; the n-th retry waits Backoff*n.
type RetryPolicy struct {
	Attempts  int
	Backoff   time.Duration
	Retryable func(error) bool
	Sleep     func(ctx context.Context, d time.Duration) error
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:  2,
		Backoff:   3 * time.Second,
		Retryable: apperr.Retryable,
		Sleep:     sleep,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retry calls fn until it succeeds, returns a non-retryable error, or the
// policy's attempts are exhausted. The last error is returned.
func Retry[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	if p.Retryable == nil {
		p.Retryable = apperr.Retryable
	}
	if p.Sleep == nil {
		p.Sleep = sleep
	}

	var zero T
	for attempt := 0; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= p.Attempts || !p.Retryable(err) {
			return zero, err
		}
		if serr := p.Sleep(ctx, p.Backoff*time.Duration(attempt+1)); serr != nil {
			return zero, err
		}
	}
}
