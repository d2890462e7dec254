package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/ledger-backend/internal/domain"
)

func setupLocker(t *testing.T, opts Options) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredislib.NewClient(&goredislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLocker(client, opts, nil), mr
}

func TestLocker_AcquireAndRelease(t *testing.T) {
	l, mr := setupLocker(t, DefaultOptions())
	a, b := uuid.New(), uuid.New()

	release, err := l.Acquire(context.Background(), b, a)
	require.NoError(t, err)
	assert.True(t, mr.Exists(keyPrefix+a.String()))
	assert.True(t, mr.Exists(keyPrefix+b.String()))

	release()
	assert.False(t, mr.Exists(keyPrefix+a.String()))
	assert.False(t, mr.Exists(keyPrefix+b.String()))
}

func TestLocker_ContentionIsConflict(t *testing.T) {
	l, _ := setupLocker(t, Options{
		Expiry:      5 * time.Second,
		Tries:       2,
		RetryDelay:  5 * time.Millisecond,
		DriftFactor: 0.01,
	})
	id := uuid.New()

	release, err := l.Acquire(context.Background(), id)
	require.NoError(t, err)
	defer release()

	_, err = l.Acquire(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestLocker_PartialAcquireReleasesHeld(t *testing.T) {
	l, mr := setupLocker(t, Options{
		Expiry:      5 * time.Second,
		Tries:       1,
		RetryDelay:  time.Millisecond,
		DriftFactor: 0.01,
	})
	ids := domain.LockOrder(uuid.New(), uuid.New())
	first, second := ids[0], ids[1]

	release, err := l.Acquire(context.Background(), second)
	require.NoError(t, err)
	defer release()

	_, err = l.Acquire(context.Background(), first, second)
	assert.Error(t, err)
	assert.False(t, mr.Exists(keyPrefix+first.String()), "first lock must be released after failure")
}

func TestLocker_SerializesWaiters(t *testing.T) {
	l, _ := setupLocker(t, DefaultOptions())
	id := uuid.New()

	var inside, overlaps, done atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), id)
			if !assert.NoError(t, err) {
				return
			}
			if inside.Add(1) > 1 {
				overlaps.Add(1)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			done.Add(1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), done.Load())
	assert.Zero(t, overlaps.Load())
}
