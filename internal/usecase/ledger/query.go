package ledger

import (
	"context"
	"iter"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/simaogato/ledger-backend/internal/domain"
)

// GetBalance returns the committed balance of an account
func (s *LedgerService) GetBalance(ctx context.Context, accountID uuid.UUID) (balance *domain.AccountBalance, err error) {
	ctx, span := startSpan(ctx, "GetBalance", attribute.String("ledger.account_id", accountID.String()))
	defer func() { endSpan(span, err) }()

	balance, err = s.Accounts.GetBalance(ctx, accountID)
	if err != nil {
		return nil, classify("GetBalance", err)
	}
	return balance, nil
}

// ListTransactions returns the account's history newest first. The sequence
// is lazy and can be ranged over again to restart it.
func (s *LedgerService) ListTransactions(ctx context.Context, accountID uuid.UUID) (iter.Seq2[*domain.Transaction, error], error) {
	if _, err := s.Accounts.GetBalance(ctx, accountID); err != nil {
		return nil, classify("ListTransactions", err)
	}

	seq := s.Transactions.ListByAccount(ctx, accountID)
	return func(yield func(*domain.Transaction, error) bool) {
		for rec, err := range seq {
			if !yield(rec, classify("ListTransactions", err)) {
				return
			}
			if err != nil {
				return
			}
		}
	}, nil
}

// Collect drains at most limit records from seq. A limit <= 0 drains all.
func Collect(seq iter.Seq2[*domain.Transaction, error], limit int) ([]*domain.Transaction, error) {
	out := make([]*domain.Transaction, 0)
	for rec, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// GetReceipt rebuilds the receipt of a committed transfer
func (s *LedgerService) GetReceipt(ctx context.Context, reference string) (receipt *domain.Receipt, err error) {
	const op = "GetReceipt"
	ctx, span := startSpan(ctx, op, attribute.String("ledger.reference", reference))
	defer func() { endSpan(span, err) }()

	records, err := s.Transactions.FindByReference(ctx, reference)
	if err != nil {
		return nil, classify(op, err)
	}
	out, in, pairErr := domain.TransferPair(records)
	if pairErr != nil {
		return nil, domain.WrapError(domain.KindNotFound, op, pairErr)
	}
	recipient, err := s.Directory.Lookup(ctx, in.AccountID)
	if err != nil {
		return nil, classify(op, err)
	}
	return domain.NewReceipt(out, in, recipient), nil
}
