package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errRetry = errors.New("retry me")

func isRetry(err error) bool { return errors.Is(err, errRetry) }

func TestPolicy_Delay(t *testing.T) {
	p := Policy{BaseDelay: 10 * time.Millisecond, MaxDelay: 40 * time.Millisecond}

	for attempt := 0; attempt < 10; attempt++ {
		d := p.Delay(attempt)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, 40*time.Millisecond)
	}

	assert.Less(t, p.Delay(0), 10*time.Millisecond)
	assert.Equal(t, time.Duration(0), Policy{}.Delay(3))
}

func TestRetry(t *testing.T) {
	ctx := context.Background()
	p := Policy{MaxAttempts: 3}

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{name: "Succeeds first time", failures: 0, err: errRetry, wantCalls: 1},
		{name: "Succeeds after retries", failures: 2, err: errRetry, wantCalls: 3},
		{name: "Gives up after max attempts", failures: 5, err: errRetry, wantCalls: 3, wantErr: errRetry},
		{name: "Stops on non retryable error", failures: 5, err: errors.New("boom"), wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(ctx, p, isRetry, func(attempt int) error {
				assert.Equal(t, calls, attempt)
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.failures >= tt.wantCalls {
				assert.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Policy{MaxAttempts: 3, BaseDelay: time.Second}
	calls := 0
	err := Retry(ctx, p, isRetry, func(int) error {
		calls++
		return errRetry
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
