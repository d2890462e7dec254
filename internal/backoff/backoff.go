// Package backoff retries operations that lost an optimistic concurrency race.
package backoff

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Policy bounds a retry loop
type Policy struct {
	MaxAttempts int           // total attempts including the first
	BaseDelay   time.Duration // ceiling of the first wait
	MaxDelay    time.Duration // cap on any single wait
}

// DefaultPolicy is used when a caller does not configure one
var DefaultPolicy = Policy{
	MaxAttempts: 5,
	BaseDelay:   5 * time.Millisecond,
	MaxDelay:    200 * time.Millisecond,
}

// Delay returns a random wait in [0, min(MaxDelay, BaseDelay*2^attempt)).
// attempt is zero based.
func (p Policy) Delay(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	ceiling := p.BaseDelay
	for i := 0; i < attempt; i++ {
		ceiling *= 2
		if p.MaxDelay > 0 && ceiling >= p.MaxDelay {
			ceiling = p.MaxDelay
			break
		}
		if ceiling <= 0 { // overflow
			ceiling = p.MaxDelay
			break
		}
	}
	if p.MaxDelay > 0 && ceiling > p.MaxDelay {
		ceiling = p.MaxDelay
	}
	if ceiling <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(ceiling)))
}

// Retry calls fn until it succeeds, returns an error retryable rejects, or
// the attempts run out. The last error is returned unchanged so callers can
// still inspect its kind.
func Retry(ctx context.Context, p Policy, retryable func(error) bool, fn func(attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = fn(attempt)
		if err == nil || !retryable(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}
		if sleepErr := Sleep(ctx, p.Delay(attempt)); sleepErr != nil {
			return sleepErr
		}
	}
	return err
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("retry wait interrupted: %w", ctx.Err())
	}
}
