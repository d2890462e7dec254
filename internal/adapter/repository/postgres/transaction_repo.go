package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/ledger-backend/internal/domain"
)

// DefaultPageSize is how many records ListByAccount fetches per round trip
const DefaultPageSize = 100

const transactionColumns = `id, account_id, sender_id, type, amount, currency, status,
	description, reference, idempotency_key, created_at, updated_at`

// transactionRepository implements domain.TransactionLog
type transactionRepository struct {
	db       *DB
	pageSize int
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *DB) domain.TransactionLog {
	return &transactionRepository{db: db, pageSize: DefaultPageSize}
}

// ListByAccount pages through the account's records newest first using a
// (created_at, id) keyset. Pages are fetched only as the caller advances.
func (r *transactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) iter.Seq2[*domain.Transaction, error] {
	return func(yield func(*domain.Transaction, error) bool) {
		var cursor *domain.Transaction
		for {
			page, err := r.page(ctx, accountID, cursor)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, rec := range page {
				if !yield(rec, nil) {
					return
				}
			}
			if len(page) < r.pageSize {
				return
			}
			cursor = page[len(page)-1]
		}
	}
}

func (r *transactionRepository) page(ctx context.Context, accountID uuid.UUID, after *domain.Transaction) ([]*domain.Transaction, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if after == nil {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+transactionColumns+`
			FROM ledger_transactions
			WHERE account_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`, accountID, r.pageSize)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+transactionColumns+`
			FROM ledger_transactions
			WHERE account_id = $1 AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4
		`, accountID, after.CreatedAt, after.ID, r.pageSize)
	}
	if err != nil {
		return nil, classifyError("ListByAccount", err)
	}
	return collectTransactions("ListByAccount", rows)
}

// FindByReference returns every record carrying the reference
func (r *transactionRepository) FindByReference(ctx context.Context, reference string) ([]*domain.Transaction, error) {
	recs, err := findTransactions(ctx, r.db, "FindByReference", `
		SELECT `+transactionColumns+`
		FROM ledger_transactions
		WHERE reference = $1
		ORDER BY created_at, id
	`, reference)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, domain.NewError(domain.KindNotFound, "FindByReference",
			fmt.Sprintf("no transaction with reference %q", reference))
	}
	return recs, nil
}

// FindByIdempotencyKey returns the records created under a scoped key
func (r *transactionRepository) FindByIdempotencyKey(ctx context.Context, key string) ([]*domain.Transaction, error) {
	return findByIdempotencyKey(ctx, r.db, key)
}

func findByIdempotencyKey(ctx context.Context, q querier, key string) ([]*domain.Transaction, error) {
	return findTransactions(ctx, q, "FindByIdempotencyKey", `
		SELECT `+transactionColumns+`
		FROM ledger_transactions
		WHERE idempotency_key = $1
		ORDER BY created_at, id
	`, key)
}

func findTransactions(ctx context.Context, q querier, op, query string, args ...any) ([]*domain.Transaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyError(op, err)
	}
	return collectTransactions(op, rows)
}

func collectTransactions(op string, rows *sql.Rows) ([]*domain.Transaction, error) {
	defer rows.Close()

	recs := []*domain.Transaction{}
	for rows.Next() {
		rec, err := scanTransaction(rows)
		if err != nil {
			return nil, classifyError(op, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(op, err)
	}
	return recs, nil
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		rec       domain.Transaction
		senderID  uuid.NullUUID
		txType    string
		status    string
		amountStr string
		key       sql.NullString
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(
		&rec.ID,
		&rec.AccountID,
		&senderID,
		&txType,
		&amountStr,
		&rec.Currency,
		&status,
		&rec.Description,
		&rec.Reference,
		&key,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if senderID.Valid {
		id := senderID.UUID
		rec.SenderID = &id
	}
	if rec.Type, err = domain.ParseTransactionType(txType); err != nil {
		return nil, err
	}
	if rec.Status, err = domain.ParseTransactionStatus(status); err != nil {
		return nil, err
	}
	if rec.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	rec.IdempotencyKey = key.String
	rec.CreatedAt = createdAt
	rec.UpdatedAt = updatedAt
	return &rec, nil
}

func insertTransaction(ctx context.Context, q querier, rec *domain.Transaction) error {
	var senderID uuid.NullUUID
	if rec.SenderID != nil {
		senderID = uuid.NullUUID{UUID: *rec.SenderID, Valid: true}
	}
	key := sql.NullString{String: rec.IdempotencyKey, Valid: rec.IdempotencyKey != ""}

	_, err := q.ExecContext(ctx, `
		INSERT INTO ledger_transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		rec.ID,
		rec.AccountID,
		senderID,
		string(rec.Type),
		rec.Amount.String(),
		rec.Currency,
		string(rec.Status),
		rec.Description,
		rec.Reference,
		key,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return classifyError("Append", err)
}
