package completion

import (
	"context"
	"time"
)

// maxRetries and backoff bounds implement spec §4.6's retry policy: up to 2
// retries with exponential backoff capped at 2s, Network errors only, and
// only when the request is idempotent.
const (
	maxRetries  = 2
	baseBackoff = 250 * time.Millisecond
	maxBackoff  = 2 * time.Second
)

// withRetry runs fn, retrying on Network-kind errors up to maxRetries times
// when idempotent is true. Provider and Protocol errors never retry.
func withRetry[T any](ctx context.Context, idempotent bool, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	backoff := baseBackoff

	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !idempotent || attempt >= maxRetries || !isRetriable(err) {
			return zero, err
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
