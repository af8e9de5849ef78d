// Package retry provides an explicit, reusable retry policy for external
// calls: a bounded attempt count with a fixed delay between attempts.
package retry

import (
	"context"
	"time"
)

// Policy describes a bounded retry loop. The delay is fixed; there is no
// exponential growth and no jitter. A nil Retryable predicate retries every
// error.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Retryable   func(error) bool
}

// Do runs op until it succeeds, the attempt budget is exhausted, or the
// context is cancelled while waiting between attempts. The last error is
// returned after exhaustion with no further attempts.
func (p Policy) Do(ctx context.Context, op func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		last = op(ctx)
		if last == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(last) {
			return last
		}
		if attempt == attempts {
			break
		}
		if p.Delay > 0 {
			select {
			case <-time.After(p.Delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return last
}
