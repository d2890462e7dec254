package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/ledger-backend/internal/adapter/lock/local"
	"github.com/simaogato/ledger-backend/internal/adapter/repository/memory"
	"github.com/simaogato/ledger-backend/internal/backoff"
	"github.com/simaogato/ledger-backend/internal/domain"
)

const (
	aliceNumber = "ACC000000001"
	bobNumber   = "ACC000000002"
)

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.LedgerEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type fixture struct {
	store   *memory.Store
	service *LedgerService
	alice   uuid.UUID
	bob     uuid.UUID
	admin   domain.AdminCapability
}

func (f *fixture) self(id uuid.UUID) domain.SelfCapability {
	capability, err := domain.GrantSelf(domain.Caller{AccountID: id, Role: domain.RoleUser})
	if err != nil {
		panic(err)
	}
	return capability
}

func (f *fixture) balance(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	b, err := f.store.GetBalance(context.Background(), id)
	require.NoError(t, err)
	return b.Amount
}

func (f *fixture) history(t *testing.T, id uuid.UUID) []*domain.Transaction {
	t.Helper()
	seq, err := f.service.ListTransactions(context.Background(), id)
	require.NoError(t, err)
	recs, err := Collect(seq, 0)
	require.NoError(t, err)
	return recs
}

// tickingClock advances one second per call so records have distinct times
func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func newFixture(t *testing.T, aliceBalance, bobBalance int64, opts ...Option) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{store: store, alice: uuid.New(), bob: uuid.New()}

	register := func(id uuid.UUID, number, name string, amount int64) {
		require.NoError(t, store.Register(context.Background(),
			&domain.DirectoryEntry{AccountNumber: number, AccountID: id, DisplayName: name},
			&domain.AccountBalance{AccountID: id, Amount: decimal.NewFromInt(amount), Currency: "USD"},
		))
	}
	register(f.alice, aliceNumber, "Alice Smith", aliceBalance)
	register(f.bob, bobNumber, "Bob Jones", bobBalance)

	admin, err := domain.GrantAdmin(domain.Caller{AccountID: uuid.New(), Role: domain.RoleAdmin})
	require.NoError(t, err)
	f.admin = admin

	base := []Option{
		WithClock(tickingClock()),
		WithRetryPolicy(backoff.Policy{MaxAttempts: 3}),
	}
	f.service = NewLedgerService(Dependencies{
		Accounts:     store,
		Transactions: store,
		Directory:    store,
		UnitOfWork:   store,
		Locker:       local.NewLocker(time.Second),
	}, append(base, opts...)...)
	return f
}

// faultyUnitOfWork injects conflicts and append failures around a real one
type faultyUnitOfWork struct {
	inner       domain.UnitOfWork
	mu          sync.Mutex
	conflicts   int // remaining attempts to reject with a conflict
	failAppend  int // 1-based append to fail, 0 disables
	commitCalls int
}

func (f *faultyUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.TxScope) error) error {
	f.mu.Lock()
	f.commitCalls++
	if f.conflicts > 0 {
		f.conflicts--
		f.mu.Unlock()
		return domain.NewError(domain.KindConflict, "test", "injected conflict")
	}
	failAt := f.failAppend
	f.mu.Unlock()

	return f.inner.WithinTx(ctx, func(ctx context.Context, tx domain.TxScope) error {
		return fn(ctx, &faultyScope{TxScope: tx, failAt: failAt})
	})
}

type faultyScope struct {
	domain.TxScope
	failAt  int
	appends int
}

var errDiskFull = errors.New("disk full")

func (s *faultyScope) Append(ctx context.Context, tx *domain.Transaction) error {
	s.appends++
	if s.appends == s.failAt {
		return errDiskFull
	}
	return s.TxScope.Append(ctx, tx)
}
