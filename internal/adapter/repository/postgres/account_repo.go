package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/ledger-backend/internal/domain"
)

// AccountRepository implements domain.AccountStore and domain.AccountRegistry
type AccountRepository struct {
	db *DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const selectBalanceQuery = `
	SELECT account_id, amount, currency, version, updated_at
	FROM account_balances
	WHERE account_id = $1
`

// GetBalance retrieves the committed balance of an account
func (r *AccountRepository) GetBalance(ctx context.Context, accountID uuid.UUID) (*domain.AccountBalance, error) {
	b, err := scanBalance(r.db.QueryRowContext(ctx, selectBalanceQuery, accountID))
	if err != nil {
		return nil, notFoundOr("GetBalance", err, "account %s not found", accountID)
	}
	return b, nil
}

// Register inserts the directory entry and the opening balance in one transaction
func (r *AccountRepository) Register(ctx context.Context, entry *domain.DirectoryEntry, balance *domain.AccountBalance) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if err := balance.Validate(); err != nil {
		return err
	}
	if entry.AccountID != balance.AccountID {
		return fmt.Errorf("directory entry and balance belong to different accounts")
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := balance.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classifyError("Register", err)
	}
	defer dbTx.Rollback()

	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO account_directory (account_number, account_id, display_name, created_at)
		VALUES ($1, $2, $3, $4)
	`, entry.AccountNumber, entry.AccountID, entry.DisplayName, createdAt)
	if err != nil {
		return classifyError("Register", err)
	}

	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO account_balances (account_id, amount, currency, version, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, balance.AccountID, balance.Amount.String(), balance.Currency, balance.Version, updatedAt)
	if err != nil {
		return classifyError("Register", err)
	}

	if err := dbTx.Commit(); err != nil {
		return classifyError("Register", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBalance(row rowScanner) (*domain.AccountBalance, error) {
	var b domain.AccountBalance
	var amountStr string
	if err := row.Scan(&b.AccountID, &amountStr, &b.Currency, &b.Version, &b.UpdatedAt); err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	b.Amount = amount
	return &b, nil
}
