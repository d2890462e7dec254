package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/simaogato/ledger-backend/internal/domain"
)

// TransferInput represents a peer to peer transfer request from the caller
type TransferInput struct {
	RecipientAccountNumber string
	Amount                 decimal.Decimal
	Description            string // defaults to "Transfer to <recipient>"
	IdempotencyKey         string // optional
}

// Transfer moves funds from the capability holder to the account behind
// RecipientAccountNumber and returns the receipt.
// Logic:
//  1. Validate amount
//  2. Resolve recipient and reject transfers to self
//  3. Replay a previous receipt for the same idempotency key
//  4. Lock both accounts in id order and commit debit, credit and both legs
//  5. Publish TransferCompleted after the locks are released
func (s *LedgerService) Transfer(ctx context.Context, capability domain.SelfCapability, input TransferInput) (receipt *domain.Receipt, err error) {
	const op = "Transfer"
	senderID := capability.AccountID()
	ctx, span := startSpan(ctx, op,
		attribute.String("ledger.sender_id", senderID.String()),
		attribute.String("ledger.recipient_account_number", input.RecipientAccountNumber),
	)
	defer func() { endSpan(span, err) }()

	if !capability.Valid() {
		return nil, domain.NewError(domain.KindUnauthorized, op, "caller capability required")
	}

	// 1. Validate amount
	if !input.Amount.IsPositive() {
		return nil, domain.NewError(domain.KindInvalidAmount, op, "Amount must be greater than zero")
	}
	if !domain.HasValidScale(input.Amount) {
		return nil, domain.NewError(domain.KindInvalidAmount, op, fmt.Sprintf("amount %s has more than %d decimal places", input.Amount, domain.MinorUnits))
	}

	// 2. Resolve recipient
	recipient, err := s.Directory.Resolve(ctx, strings.TrimSpace(input.RecipientAccountNumber))
	if err != nil {
		return nil, classify(op, err)
	}
	if recipient.AccountID == senderID {
		return nil, domain.NewError(domain.KindSelfTransfer, op, "Cannot transfer to your own account")
	}

	// 3. Replay
	key := scopedKey("transfer", senderID, input.IdempotencyKey)
	if key != "" {
		if prior, err := s.receiptForKey(ctx, key); err != nil || prior != nil {
			return prior, err
		}
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = "Transfer to " + recipient.DisplayName
	}

	// 4. Lock and commit
	err = s.attempt(ctx, op, []uuid.UUID{senderID, recipient.AccountID}, func() error {
		r, err := s.commitTransfer(ctx, senderID, recipient, input.Amount, description, key)
		if err != nil {
			return err
		}
		receipt = r
		return nil
	})
	if key != "" && (errors.Is(err, errAlreadyApplied) || errors.Is(err, domain.ErrDuplicateID)) {
		prior, replayErr := s.receiptForKey(ctx, key)
		if replayErr == nil && prior == nil {
			replayErr = classify(op, err)
		}
		return prior, replayErr
	}
	if err != nil {
		return nil, classify(op, err)
	}

	s.logger(ctx).Info("transfer committed",
		zap.String("reference", receipt.Reference),
		zap.String("sender_id", senderID.String()),
		zap.String("recipient_id", recipient.AccountID.String()),
		zap.String("amount", receipt.Amount.StringFixed(domain.MinorUnits)),
	)

	// 5. Publish
	recipientID := recipient.AccountID
	s.publish(ctx, domain.LedgerEvent{
		Type:           domain.EventTransferCompleted,
		Reference:      receipt.Reference,
		AccountID:      senderID,
		CounterpartyID: &recipientID,
		Amount:         receipt.Amount,
		Currency:       receipt.Currency,
		OccurredAt:     receipt.Timestamp,
	})

	return receipt, nil
}

func (s *LedgerService) commitTransfer(
	ctx context.Context,
	senderID uuid.UUID,
	recipient *domain.DirectoryEntry,
	amount decimal.Decimal,
	description string,
	key string,
) (*domain.Receipt, error) {
	const op = "Transfer"
	var receipt *domain.Receipt

	err := s.UnitOfWork.WithinTx(ctx, func(ctx context.Context, tx domain.TxScope) error {
		if key != "" {
			prior, err := tx.FindByIdempotencyKey(ctx, key)
			if err != nil {
				return err
			}
			if len(prior) > 0 {
				return errAlreadyApplied
			}
		}

		// Row locks follow the same order as the account locks.
		balances := make(map[uuid.UUID]*domain.AccountBalance, 2)
		for _, id := range domain.LockOrder(senderID, recipient.AccountID) {
			b, err := tx.GetBalanceForUpdate(ctx, id)
			if err != nil {
				return err
			}
			balances[id] = b
		}
		from, to := balances[senderID], balances[recipient.AccountID]

		if from.Amount.LessThan(amount) {
			return domain.NewError(domain.KindInsufficientFunds, op, "Insufficient balance")
		}
		if from.Currency != to.Currency {
			return domain.NewError(domain.KindCurrencyMismatch, op,
				fmt.Sprintf("cannot transfer %s to a %s account", from.Currency, to.Currency))
		}

		if _, err := tx.SetBalance(ctx, senderID, from.Amount.Sub(amount), from.Currency, from.Version); err != nil {
			return err
		}
		if _, err := tx.SetBalance(ctx, recipient.AccountID, to.Amount.Add(amount), to.Currency, to.Version); err != nil {
			return err
		}

		now := s.Now()
		reference := s.newReference(transferReferencePrefix)
		out := &domain.Transaction{
			ID:             s.NewID(),
			AccountID:      senderID,
			Type:           domain.TransactionTypeTransferOut,
			Amount:         amount,
			Currency:       from.Currency,
			Status:         domain.TransactionStatusSuccess,
			Description:    description,
			Reference:      reference,
			IdempotencyKey: key,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		sender := senderID
		in := &domain.Transaction{
			ID:          s.NewID(),
			AccountID:   recipient.AccountID,
			SenderID:    &sender,
			Type:        domain.TransactionTypeReceived,
			Amount:      amount,
			Currency:    from.Currency,
			Status:      domain.TransactionStatusSuccess,
			Description: description,
			Reference:   reference,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Append(ctx, out); err != nil {
			return err
		}
		if err := tx.Append(ctx, in); err != nil {
			return err
		}

		receipt = domain.NewReceipt(out, in, recipient)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// receiptForKey returns the receipt of a transfer committed under key, or
// nil, nil when the key is unused.
func (s *LedgerService) receiptForKey(ctx context.Context, key string) (*domain.Receipt, error) {
	prior, err := s.Transactions.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, classify("Transfer", err)
	}
	for _, rec := range prior {
		if rec.Type == domain.TransactionTypeTransferOut {
			s.logger(ctx).Info("replaying idempotent transfer", zap.String("reference", rec.Reference))
			return s.GetReceipt(ctx, rec.Reference)
		}
	}
	return nil, nil
}
