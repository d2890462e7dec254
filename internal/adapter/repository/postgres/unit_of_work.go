package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/ledger-backend/internal/domain"
)

// unitOfWork implements domain.UnitOfWork on a database transaction
type unitOfWork struct {
	db *DB
}

// NewUnitOfWork creates a unit of work backed by the database
func NewUnitOfWork(db *DB) domain.UnitOfWork {
	return &unitOfWork{db: db}
}

// WithinTx runs fn in a READ COMMITTED transaction. Balance rows are locked
// with SELECT ... FOR UPDATE, so concurrent writers queue on the row.
func (u *unitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.TxScope) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dbTx, err := u.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return classifyError("WithinTx", err)
	}
	defer dbTx.Rollback()

	if err := fn(ctx, &txScope{tx: dbTx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("unit of work abandoned before commit: %w", err)
	}
	if err := dbTx.Commit(); err != nil {
		return classifyError("commit", err)
	}
	return nil
}

// txScope implements domain.TxScope on an open *sql.Tx
type txScope struct {
	tx *sql.Tx
}

func (t *txScope) GetBalanceForUpdate(ctx context.Context, accountID uuid.UUID) (*domain.AccountBalance, error) {
	b, err := scanBalance(t.tx.QueryRowContext(ctx, selectBalanceQuery+` FOR UPDATE`, accountID))
	if err != nil {
		return nil, notFoundOr("GetBalanceForUpdate", err, "account %s not found", accountID)
	}
	return b, nil
}

func (t *txScope) SetBalance(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, currency string, expectedVersion int64) (*domain.AccountBalance, error) {
	if amount.IsNegative() {
		return nil, domain.NewError(domain.KindInvalidAmount, "SetBalance", "Balance cannot be negative")
	}

	query := `
		UPDATE account_balances
		SET amount = $2, currency = $3, version = version + 1, updated_at = $5
		WHERE account_id = $1 AND version = $4
		RETURNING account_id, amount, currency, version, updated_at
	`
	b, err := scanBalance(t.tx.QueryRowContext(ctx, query,
		accountID, amount.String(), currency, expectedVersion, time.Now().UTC()))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, classifyError("SetBalance", err)
	}

	// No row matched: either the account is gone or its version moved.
	var current int64
	err = t.tx.QueryRowContext(ctx, `SELECT version FROM account_balances WHERE account_id = $1`, accountID).Scan(&current)
	if err != nil {
		return nil, notFoundOr("SetBalance", err, "account %s not found", accountID)
	}
	return nil, domain.NewError(domain.KindConflict, "SetBalance",
		fmt.Sprintf("account %s is at version %d, expected %d", accountID, current, expectedVersion))
}

func (t *txScope) Append(ctx context.Context, rec *domain.Transaction) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	row := *rec
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return insertTransaction(ctx, t.tx, &row)
}

func (t *txScope) FindByIdempotencyKey(ctx context.Context, key string) ([]*domain.Transaction, error) {
	return findByIdempotencyKey(ctx, t.tx, key)
}
