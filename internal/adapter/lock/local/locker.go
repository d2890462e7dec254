// Package local serializes account mutations inside one process.
package local

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/simaogato/ledger-backend/internal/domain"
)

// slot is a one-token semaphore so waiting can observe ctx
type slot struct {
	ch   chan struct{}
	refs int
}

// Locker implements domain.AccountLocker with one semaphore per account.
// Slots are dropped once nobody holds or waits on them.
type Locker struct {
	// Timeout bounds how long Acquire waits before reporting a conflict.
	// Zero waits until ctx is done.
	Timeout time.Duration

	mu    sync.Mutex
	slots map[uuid.UUID]*slot
}

// NewLocker creates a new Locker
func NewLocker(timeout time.Duration) *Locker {
	return &Locker{
		Timeout: timeout,
		slots:   make(map[uuid.UUID]*slot),
	}
}

// Acquire implements domain.AccountLocker
func (l *Locker) Acquire(ctx context.Context, accountIDs ...uuid.UUID) (func(), error) {
	waitCtx := ctx
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	ordered := domain.LockOrder(accountIDs...)
	held := make([]uuid.UUID, 0, len(ordered))

	for _, id := range ordered {
		s := l.ref(id)
		select {
		case s.ch <- struct{}{}:
			held = append(held, id)
		case <-waitCtx.Done():
			l.unref(id)
			l.release(held)
			if ctx.Err() == nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
				return nil, domain.NewError(domain.KindConflict, "Acquire",
					fmt.Sprintf("timed out waiting for account %s", id))
			}
			return nil, fmt.Errorf("failed to lock account %s: %w", id, ctx.Err())
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(held) })
	}, nil
}

func (l *Locker) ref(id uuid.UUID) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[id]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[id] = s
	}
	s.refs++
	return s
}

func (l *Locker) unref(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.slots[id]
	s.refs--
	if s.refs == 0 {
		delete(l.slots, id)
	}
}

// release frees held locks in reverse order
func (l *Locker) release(held []uuid.UUID) {
	for i := len(held) - 1; i >= 0; i-- {
		l.mu.Lock()
		s := l.slots[held[i]]
		l.mu.Unlock()

		<-s.ch
		l.unref(held[i])
	}
}
