package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/ledger-backend/internal/domain"
)

type stagedBalance struct {
	balance     *domain.AccountBalance
	baseVersion int64 // committed version the stage was built on
}

// txScope buffers the writes of one unit of work
type txScope struct {
	store    *Store
	balances map[uuid.UUID]*stagedBalance
	reads    map[uuid.UUID]int64
	appended []*domain.Transaction
}

func newTxScope(s *Store) *txScope {
	return &txScope{
		store:    s,
		balances: make(map[uuid.UUID]*stagedBalance),
		reads:    make(map[uuid.UUID]int64),
	}
}

func (t *txScope) current(accountID uuid.UUID) (*domain.AccountBalance, error) {
	if staged, ok := t.balances[accountID]; ok {
		return staged.balance.Clone(), nil
	}

	t.store.mu.RLock()
	b, ok := t.store.balances[accountID]
	t.store.mu.RUnlock()
	if !ok {
		return nil, notFound("GetBalanceForUpdate", "account %s not found", accountID)
	}
	if _, seen := t.reads[accountID]; !seen {
		t.reads[accountID] = b.Version
	}
	return b.Clone(), nil
}

func (t *txScope) GetBalanceForUpdate(ctx context.Context, accountID uuid.UUID) (*domain.AccountBalance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.current(accountID)
}

func (t *txScope) SetBalance(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, currency string, expectedVersion int64) (*domain.AccountBalance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, domain.NewError(domain.KindInvalidAmount, "SetBalance", "Balance cannot be negative")
	}

	cur, err := t.current(accountID)
	if err != nil {
		return nil, err
	}
	if cur.Version != expectedVersion {
		return nil, domain.NewError(domain.KindConflict, "SetBalance",
			fmt.Sprintf("account %s is at version %d, expected %d", accountID, cur.Version, expectedVersion))
	}

	base := t.reads[accountID]
	if staged, ok := t.balances[accountID]; ok {
		base = staged.baseVersion
	}

	next := &domain.AccountBalance{
		AccountID: accountID,
		Amount:    amount,
		Currency:  currency,
		Version:   cur.Version + 1,
		UpdatedAt: t.store.now(),
	}
	t.balances[accountID] = &stagedBalance{balance: next, baseVersion: base}
	return next.Clone(), nil
}

func (t *txScope) Append(ctx context.Context, tx *domain.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tx.Validate(); err != nil {
		return err
	}

	for _, staged := range t.appended {
		if err := duplicate(staged, tx); err != nil {
			return err
		}
	}

	t.store.mu.RLock()
	err := t.store.checkUnique(tx)
	t.store.mu.RUnlock()
	if err != nil {
		return err
	}

	t.appended = append(t.appended, cloneRecord(tx))
	return nil
}

func (t *txScope) FindByIdempotencyKey(ctx context.Context, key string) ([]*domain.Transaction, error) {
	found, err := t.store.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}
	for _, rec := range t.appended {
		if rec.IdempotencyKey == key {
			found = append(found, cloneRecord(rec))
		}
	}
	return found, nil
}

// commit re-checks every optimistic assumption under the write lock and then
// applies all staged writes, or none.
func (t *txScope) commit() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, staged := range t.balances {
		b, ok := s.balances[id]
		if !ok {
			return notFound("commit", "account %s disappeared", id)
		}
		if b.Version != staged.baseVersion {
			return domain.NewError(domain.KindConflict, "commit",
				fmt.Sprintf("account %s changed concurrently", id))
		}
	}
	for _, rec := range t.appended {
		if err := s.checkUnique(rec); err != nil {
			return err
		}
	}

	for id, staged := range t.balances {
		s.balances[id] = staged.balance
	}
	now := s.now()
	for _, rec := range t.appended {
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		if rec.UpdatedAt.IsZero() {
			rec.UpdatedAt = rec.CreatedAt
		}
		s.insert(rec)
	}
	return nil
}

// checkUnique rejects a record whose id or idempotency key is taken. Callers
// hold s.mu.
func (s *Store) checkUnique(tx *domain.Transaction) error {
	if _, exists := s.records[tx.ID]; exists {
		return domain.NewError(domain.KindDuplicateID, "Append", fmt.Sprintf("transaction %s already exists", tx.ID))
	}
	if tx.IdempotencyKey != "" && len(s.byKey[tx.IdempotencyKey]) > 0 {
		return domain.NewError(domain.KindDuplicateID, "Append", "idempotency key already used")
	}
	return nil
}

func duplicate(existing, tx *domain.Transaction) error {
	if existing.ID == tx.ID {
		return domain.NewError(domain.KindDuplicateID, "Append", fmt.Sprintf("transaction %s already exists", tx.ID))
	}
	if tx.IdempotencyKey != "" && existing.IdempotencyKey == tx.IdempotencyKey {
		return domain.NewError(domain.KindDuplicateID, "Append", "idempotency key already used")
	}
	return nil
}
