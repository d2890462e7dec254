package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/simaogato/ledger-backend/internal/domain"
)

// directoryRepository implements domain.Directory
type directoryRepository struct {
	db *DB
}

// NewDirectoryRepository creates a new directory repository
func NewDirectoryRepository(db *DB) domain.Directory {
	return &directoryRepository{db: db}
}

// Resolve maps an account number to its directory entry
func (r *directoryRepository) Resolve(ctx context.Context, accountNumber string) (*domain.DirectoryEntry, error) {
	query := `
		SELECT account_number, account_id, display_name, created_at
		FROM account_directory
		WHERE account_number = $1
	`
	var e domain.DirectoryEntry
	err := r.db.QueryRowContext(ctx, query, accountNumber).Scan(&e.AccountNumber, &e.AccountID, &e.DisplayName, &e.CreatedAt)
	if err != nil {
		return nil, notFoundOr("Resolve", err, "account number %s not found", accountNumber)
	}
	return &e, nil
}

// Lookup finds the directory entry of an internal account id
func (r *directoryRepository) Lookup(ctx context.Context, accountID uuid.UUID) (*domain.DirectoryEntry, error) {
	query := `
		SELECT account_number, account_id, display_name, created_at
		FROM account_directory
		WHERE account_id = $1
	`
	var e domain.DirectoryEntry
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(&e.AccountNumber, &e.AccountID, &e.DisplayName, &e.CreatedAt)
	if err != nil {
		return nil, notFoundOr("Lookup", err, "account %s has no directory entry", accountID)
	}
	return &e, nil
}
