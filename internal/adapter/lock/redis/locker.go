// Package redis serializes account mutations across ledger instances with
// a redsync mutex per account.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/google/uuid"
	goredislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/simaogato/ledger-backend/internal/domain"
)

const keyPrefix = "ledger:account:"

// Options tune the redsync mutexes
type Options struct {
	Expiry      time.Duration // lock TTL; must outlive one commit
	Tries       int
	RetryDelay  time.Duration
	DriftFactor float64
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		Expiry:      10 * time.Second,
		Tries:       32,
		RetryDelay:  50 * time.Millisecond,
		DriftFactor: 0.01,
	}
}

// Locker implements domain.AccountLocker on top of redis
type Locker struct {
	rs     *redsync.Redsync
	opts   Options
	logger *zap.Logger
}

// NewLocker creates a Locker using the given client
func NewLocker(client goredislib.UniversalClient, opts Options, logger *zap.Logger) *Locker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locker{
		rs:     redsync.New(goredis.NewPool(client)),
		opts:   opts,
		logger: logger,
	}
}

// Acquire implements domain.AccountLocker
func (l *Locker) Acquire(ctx context.Context, accountIDs ...uuid.UUID) (func(), error) {
	ordered := domain.LockOrder(accountIDs...)
	held := make([]*redsync.Mutex, 0, len(ordered))

	for _, id := range ordered {
		mutex := l.rs.NewMutex(keyPrefix+id.String(),
			redsync.WithExpiry(l.opts.Expiry),
			redsync.WithTries(l.opts.Tries),
			redsync.WithRetryDelay(l.opts.RetryDelay),
			redsync.WithDriftFactor(l.opts.DriftFactor),
		)
		if err := mutex.LockContext(ctx); err != nil {
			l.unlock(held)
			if ctx.Err() != nil {
				return nil, fmt.Errorf("failed to lock account %s: %w", id, ctx.Err())
			}
			if isContention(err) {
				return nil, domain.NewError(domain.KindConflict, "Acquire",
					fmt.Sprintf("account %s is locked by another instance", id))
			}
			return nil, domain.WrapError(domain.KindStorageFailure, "Acquire", err)
		}
		held = append(held, mutex)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		l.unlock(held)
	}, nil
}

// unlock releases mutexes in reverse order. It uses a fresh context so a
// cancelled request still frees its locks.
func (l *Locker) unlock(held []*redsync.Mutex) {
	ctx, cancel := context.WithTimeout(context.Background(), l.opts.Expiry)
	defer cancel()

	for i := len(held) - 1; i >= 0; i-- {
		if ok, err := held[i].UnlockContext(ctx); !ok || err != nil {
			l.logger.Warn("failed to release account lock",
				zap.String("key", held[i].Name()),
				zap.Error(err),
			)
		}
	}
}

func isContention(err error) bool {
	if errors.Is(err, redsync.ErrFailed) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "lock already taken") || strings.Contains(msg, "failed to acquire lock")
}
