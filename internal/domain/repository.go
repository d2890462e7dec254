package domain

import (
	"context"
	"iter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountStore defines read access to account balances
type AccountStore interface {
	// GetBalance retrieves the committed balance of an account
	// Returns a KindNotFound error when the account has no balance row
	GetBalance(ctx context.Context, accountID uuid.UUID) (*AccountBalance, error)
}

// TransactionLog defines read access to the append-only record log
type TransactionLog interface {
	// ListByAccount yields the account's records newest first.
	// The sequence is lazy and may be ranged over again to restart it.
	ListByAccount(ctx context.Context, accountID uuid.UUID) iter.Seq2[*Transaction, error]

	// FindByReference returns every record carrying the reference
	// Returns a KindNotFound error when there is none
	FindByReference(ctx context.Context, reference string) ([]*Transaction, error)

	// FindByIdempotencyKey returns the records created under a scoped key
	// An empty slice means the key is unused
	FindByIdempotencyKey(ctx context.Context, key string) ([]*Transaction, error)
}

// Directory resolves external account numbers
type Directory interface {
	// Resolve maps an account number to its directory entry
	Resolve(ctx context.Context, accountNumber string) (*DirectoryEntry, error)

	// Lookup finds the directory entry of an internal account id
	Lookup(ctx context.Context, accountID uuid.UUID) (*DirectoryEntry, error)
}

// AccountRegistry creates new accounts
type AccountRegistry interface {
	// Register stores the directory entry and the opening balance atomically
	// Returns a KindDuplicateID error if the number or id is taken
	Register(ctx context.Context, entry *DirectoryEntry, balance *AccountBalance) error
}

// TxScope is the set of operations available inside a unit of work.
// Balance writes and record appends are only reachable from here.
type TxScope interface {
	// GetBalanceForUpdate reads a balance and holds it for the rest of the unit
	GetBalanceForUpdate(ctx context.Context, accountID uuid.UUID) (*AccountBalance, error)

	// SetBalance replaces the amount if the stored version still equals
	// expectedVersion. Returns KindConflict otherwise and KindInvalidAmount for
	// negative amounts.
	SetBalance(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, currency string, expectedVersion int64) (*AccountBalance, error)

	// Append adds a record to the log
	// Returns KindDuplicateID if the id or idempotency key already exists
	Append(ctx context.Context, tx *Transaction) error

	// FindByIdempotencyKey sees records appended earlier in the same unit
	FindByIdempotencyKey(ctx context.Context, key string) ([]*Transaction, error)
}

// UnitOfWork runs fn atomically. If fn returns an error, or ctx is cancelled
// before commit, nothing fn did becomes visible.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx TxScope) error) error
}

// AccountLocker serializes mutations per account
type AccountLocker interface {
	// Acquire locks every id in ascending order and returns a release func.
	// It blocks until all locks are held or ctx is done.
	Acquire(ctx context.Context, accountIDs ...uuid.UUID) (func(), error)
}

// EventPublisher announces committed ledger events
type EventPublisher interface {
	Publish(ctx context.Context, event LedgerEvent) error
}
