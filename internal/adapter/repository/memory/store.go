// Package memory is an in-process implementation of the ledger ports. It is
// used by the development server and by tests.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/simaogato/ledger-backend/internal/domain"
)

// Store keeps balances, records and the directory in maps guarded by one
// RWMutex. It implements AccountStore, TransactionLog, Directory,
// AccountRegistry and UnitOfWork.
type Store struct {
	mu sync.RWMutex

	balances  map[uuid.UUID]*domain.AccountBalance
	records   map[uuid.UUID]*domain.Transaction
	byAccount map[uuid.UUID][]*domain.Transaction
	byRef     map[string][]*domain.Transaction
	byKey     map[string][]*domain.Transaction
	numbers   map[string]*domain.DirectoryEntry
	entries   map[uuid.UUID]*domain.DirectoryEntry

	now func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		balances:  make(map[uuid.UUID]*domain.AccountBalance),
		records:   make(map[uuid.UUID]*domain.Transaction),
		byAccount: make(map[uuid.UUID][]*domain.Transaction),
		byRef:     make(map[string][]*domain.Transaction),
		byKey:     make(map[string][]*domain.Transaction),
		numbers:   make(map[string]*domain.DirectoryEntry),
		entries:   make(map[uuid.UUID]*domain.DirectoryEntry),
		now:       time.Now,
	}
}

// GetBalance implements domain.AccountStore
func (s *Store) GetBalance(ctx context.Context, accountID uuid.UUID) (*domain.AccountBalance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.balances[accountID]
	if !ok {
		return nil, notFound("GetBalance", "account %s not found", accountID)
	}
	return b.Clone(), nil
}

// ListByAccount implements domain.TransactionLog. Each range takes a fresh
// snapshot, so ranging again restarts from the newest record.
func (s *Store) ListByAccount(ctx context.Context, accountID uuid.UUID) iter.Seq2[*domain.Transaction, error] {
	return func(yield func(*domain.Transaction, error) bool) {
		s.mu.RLock()
		snapshot := slices.Clone(s.byAccount[accountID])
		s.mu.RUnlock()

		slices.SortFunc(snapshot, newestFirst)
		for _, rec := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(cloneRecord(rec), nil) {
				return
			}
		}
	}
}

// FindByReference implements domain.TransactionLog
func (s *Store) FindByReference(ctx context.Context, reference string) ([]*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.byRef[reference]
	if len(recs) == 0 {
		return nil, notFound("FindByReference", "no transaction with reference %q", reference)
	}
	return cloneRecords(recs), nil
}

// FindByIdempotencyKey implements domain.TransactionLog
func (s *Store) FindByIdempotencyKey(ctx context.Context, key string) ([]*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecords(s.byKey[key]), nil
}

// Resolve implements domain.Directory
func (s *Store) Resolve(ctx context.Context, accountNumber string) (*domain.DirectoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.numbers[accountNumber]
	if !ok {
		return nil, notFound("Resolve", "account number %s not found", accountNumber)
	}
	c := *e
	return &c, nil
}

// Lookup implements domain.Directory
func (s *Store) Lookup(ctx context.Context, accountID uuid.UUID) (*domain.DirectoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[accountID]
	if !ok {
		return nil, notFound("Lookup", "account %s has no directory entry", accountID)
	}
	c := *e
	return &c, nil
}

// Register implements domain.AccountRegistry
func (s *Store) Register(ctx context.Context, entry *domain.DirectoryEntry, balance *domain.AccountBalance) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	if err := balance.Validate(); err != nil {
		return err
	}
	if entry.AccountID != balance.AccountID {
		return fmt.Errorf("directory entry and balance belong to different accounts")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.numbers[entry.AccountNumber]; taken {
		return domain.NewError(domain.KindDuplicateID, "Register", fmt.Sprintf("account number %s already exists", entry.AccountNumber))
	}
	if _, taken := s.entries[entry.AccountID]; taken {
		return domain.NewError(domain.KindDuplicateID, "Register", fmt.Sprintf("account %s already exists", entry.AccountID))
	}

	e := *entry
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	b := balance.Clone()
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = e.CreatedAt
	}
	s.numbers[e.AccountNumber] = &e
	s.entries[e.AccountID] = &e
	s.balances[b.AccountID] = b
	return nil
}

// WithinTx implements domain.UnitOfWork. Writes are staged on a scope and
// applied under the write lock only if fn succeeds and ctx is still live.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.TxScope) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	scope := newTxScope(s)
	if err := fn(ctx, scope); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("unit of work abandoned before commit: %w", err)
	}
	return scope.commit()
}

// insert indexes a committed record. Callers hold s.mu.
func (s *Store) insert(rec *domain.Transaction) {
	s.records[rec.ID] = rec
	s.byAccount[rec.AccountID] = append(s.byAccount[rec.AccountID], rec)
	s.byRef[rec.Reference] = append(s.byRef[rec.Reference], rec)
	if rec.IdempotencyKey != "" {
		s.byKey[rec.IdempotencyKey] = append(s.byKey[rec.IdempotencyKey], rec)
	}
}

func newestFirst(a, b *domain.Transaction) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return bytes.Compare(b.ID[:], a.ID[:])
}

func cloneRecord(rec *domain.Transaction) *domain.Transaction {
	c := *rec
	if rec.SenderID != nil {
		id := *rec.SenderID
		c.SenderID = &id
	}
	return &c
}

func cloneRecords(recs []*domain.Transaction) []*domain.Transaction {
	out := make([]*domain.Transaction, 0, len(recs))
	for _, r := range recs {
		out = append(out, cloneRecord(r))
	}
	return out
}

func notFound(op, format string, args ...any) error {
	return domain.NewError(domain.KindNotFound, op, fmt.Sprintf(format, args...))
}
