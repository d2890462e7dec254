package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simaogato/ledger-backend/internal/backoff"
	"github.com/simaogato/ledger-backend/internal/domain"
)

const (
	adjustmentReferencePrefix = "ADJ"
	transferReferencePrefix   = "TRF"

	defaultPublishTimeout = 5 * time.Second
)

// errAlreadyApplied signals that a unit of work found its idempotency key
// already committed. The caller then replays the stored result.
var errAlreadyApplied = errors.New("idempotency key already applied")

// Dependencies are the ports the ledger engine works against.
// Locker and Events are optional.
type Dependencies struct {
	Accounts     domain.AccountStore
	Transactions domain.TransactionLog
	Directory    domain.Directory
	UnitOfWork   domain.UnitOfWork
	Locker       domain.AccountLocker
	Events       domain.EventPublisher
}

// LedgerService mutates balances and records the matching history
type LedgerService struct {
	Accounts     domain.AccountStore
	Transactions domain.TransactionLog
	Directory    domain.Directory
	UnitOfWork   domain.UnitOfWork
	Locker       domain.AccountLocker
	Events       domain.EventPublisher

	Logger         *zap.Logger
	Retry          backoff.Policy
	PublishTimeout time.Duration
	Now            func() time.Time
	NewID          func() uuid.UUID
}

// Option customizes a LedgerService
type Option func(*LedgerService)

// WithLogger sets the structured logger
func WithLogger(l *zap.Logger) Option {
	return func(s *LedgerService) { s.Logger = l }
}

// WithRetryPolicy bounds the retries after a write conflict
func WithRetryPolicy(p backoff.Policy) Option {
	return func(s *LedgerService) { s.Retry = p }
}

// WithPublishTimeout bounds each event publish; non-positive keeps the default
func WithPublishTimeout(d time.Duration) Option {
	return func(s *LedgerService) {
		if d > 0 {
			s.PublishTimeout = d
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.Now = now }
}

// WithIDGenerator replaces the record id generator
func WithIDGenerator(gen func() uuid.UUID) Option {
	return func(s *LedgerService) { s.NewID = gen }
}

// NewLedgerService creates a new LedgerService instance
func NewLedgerService(deps Dependencies, opts ...Option) *LedgerService {
	s := &LedgerService{
		Accounts:       deps.Accounts,
		Transactions:   deps.Transactions,
		Directory:      deps.Directory,
		UnitOfWork:     deps.UnitOfWork,
		Locker:         deps.Locker,
		Events:         deps.Events,
		Logger:         zap.NewNop(),
		Retry:          backoff.DefaultPolicy,
		PublishTimeout: defaultPublishTimeout,
		Now:            time.Now,
		NewID:          newTimeOrderedID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newTimeOrderedID returns a UUIDv7 so ids sort roughly by creation time
func newTimeOrderedID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

func (s *LedgerService) newReference(prefix string) string {
	return prefix + "-" + s.NewID().String()
}

// withLocks runs fn while holding the per-account locks of ids
func (s *LedgerService) withLocks(ctx context.Context, ids []uuid.UUID, fn func() error) error {
	if s.Locker == nil {
		return fn()
	}
	release, err := s.Locker.Acquire(ctx, domain.LockOrder(ids...)...)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// attempt runs fn with the per-account locks held and retries the whole
// lock-and-commit cycle on conflicts. Locks are released between attempts.
func (s *LedgerService) attempt(ctx context.Context, op string, ids []uuid.UUID, fn func() error) error {
	return backoff.Retry(ctx, s.Retry, domain.IsRetryable, func(attempt int) error {
		if attempt > 0 {
			s.logger(ctx).Debug("retrying after write conflict",
				zap.String("op", op),
				zap.Int("attempt", attempt),
			)
		}
		return s.withLocks(ctx, ids, fn)
	})
}

// publish announces a committed event. Failures are logged only: the ledger
// state is already durable.
func (s *LedgerService) publish(ctx context.Context, event domain.LedgerEvent) {
	if s.Events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.PublishTimeout)
	defer cancel()

	if err := s.Events.Publish(pubCtx, event); err != nil {
		s.logger(ctx).Warn("failed to publish ledger event",
			zap.String("event", string(event.Type)),
			zap.String("reference", event.Reference),
			zap.Error(err),
		)
	}
}

// classify turns untyped port failures into storage failures
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.KindOf(err) != "" || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return domain.WrapError(domain.KindStorageFailure, op, err)
}

// scopedKey namespaces a caller supplied idempotency key
func scopedKey(scope string, owner uuid.UUID, key string) string {
	if key == "" {
		return ""
	}
	return scope + ":" + owner.String() + ":" + key
}
