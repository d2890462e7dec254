package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/simaogato/ledger-backend/internal/domain"
)

// Mode selects how AdjustBalance interprets its amount
type Mode string

const (
	ModeIncrease Mode = "increase"
	ModeReduce   Mode = "reduce"
	ModeSet      Mode = "set"
)

// ParseMode converts a wire value into a Mode
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeIncrease, ModeReduce, ModeSet:
		return m, nil
	}
	return "", domain.NewError(domain.KindInvalidMode, "AdjustBalance", fmt.Sprintf("invalid adjustment type %q", s))
}

// AdjustBalanceInput represents the input for an admin balance adjustment
type AdjustBalanceInput struct {
	AccountID      uuid.UUID
	Amount         decimal.Decimal
	Mode           Mode
	IdempotencyKey string // optional
}

// AdjustmentResult is the outcome of AdjustBalance.
// Transaction is nil when a set left the balance unchanged.
type AdjustmentResult struct {
	Balance     *domain.AccountBalance
	Transaction *domain.Transaction
}

// AdjustBalance applies an admin increase, reduction or absolute set to one
// account and records the matching deposit or withdrawal.
// Logic:
//  1. Validate mode and amount
//  2. Replay a previous result for the same idempotency key
//  3. Lock the account and commit balance + record in one unit of work
//  4. Publish BalanceAdjusted after the lock is released
func (s *LedgerService) AdjustBalance(ctx context.Context, capability domain.AdminCapability, input AdjustBalanceInput) (result *AdjustmentResult, err error) {
	const op = "AdjustBalance"
	ctx, span := startSpan(ctx, op,
		attribute.String("ledger.account_id", input.AccountID.String()),
		attribute.String("ledger.mode", string(input.Mode)),
	)
	defer func() { endSpan(span, err) }()

	if !capability.Valid() {
		return nil, domain.NewError(domain.KindUnauthorized, op, "admin capability required")
	}

	// 1. Validate mode and amount
	if _, err := ParseMode(string(input.Mode)); err != nil {
		return nil, err
	}
	if err := validateAdjustmentAmount(op, input.Mode, input.Amount); err != nil {
		return nil, err
	}

	// 2. Replay
	key := scopedKey("adjust", capability.Caller().AccountID, input.IdempotencyKey)
	if key != "" {
		if prior, err := s.adjustmentForKey(ctx, key); err != nil || prior != nil {
			return prior, err
		}
	}

	// 3. Lock and commit
	err = s.attempt(ctx, op, []uuid.UUID{input.AccountID}, func() error {
		r, err := s.commitAdjustment(ctx, input, key)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if key != "" && (errors.Is(err, errAlreadyApplied) || errors.Is(err, domain.ErrDuplicateID)) {
		prior, replayErr := s.adjustmentForKey(ctx, key)
		if replayErr == nil && prior == nil {
			replayErr = classify(op, err)
		}
		return prior, replayErr
	}
	if err != nil {
		return nil, classify(op, err)
	}

	if result.Transaction == nil {
		s.logger(ctx).Info("balance already at target, nothing recorded",
			zap.String("account_id", input.AccountID.String()),
		)
		return result, nil
	}

	s.logger(ctx).Info("balance adjusted",
		zap.String("account_id", input.AccountID.String()),
		zap.String("mode", string(input.Mode)),
		zap.String("reference", result.Transaction.Reference),
		zap.String("new_balance", result.Balance.Amount.StringFixed(domain.MinorUnits)),
	)

	// 4. Publish
	s.publish(ctx, domain.LedgerEvent{
		Type:       domain.EventBalanceAdjusted,
		Reference:  result.Transaction.Reference,
		AccountID:  input.AccountID,
		Amount:     result.Transaction.SignedAmount(),
		Currency:   result.Transaction.Currency,
		Mode:       string(input.Mode),
		OccurredAt: result.Transaction.CreatedAt,
	})

	return result, nil
}

func (s *LedgerService) commitAdjustment(ctx context.Context, input AdjustBalanceInput, key string) (*AdjustmentResult, error) {
	const op = "AdjustBalance"
	var result *AdjustmentResult

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

		current, err := tx.GetBalanceForUpdate(ctx, input.AccountID)
		if err != nil {
			return err
		}

		var (
			newAmount decimal.Decimal
			moved     decimal.Decimal
			txType    domain.TransactionType
		)
		switch input.Mode {
		case ModeIncrease:
			newAmount = current.Amount.Add(input.Amount)
			moved = input.Amount
			txType = domain.TransactionTypeDeposit
		case ModeReduce:
			newAmount = current.Amount.Sub(input.Amount)
			if newAmount.IsNegative() {
				return domain.NewError(domain.KindInsufficientFunds, op, "Balance cannot be negative")
			}
			moved = input.Amount
			txType = domain.TransactionTypeWithdrawal
		case ModeSet:
			newAmount = input.Amount
			diff := newAmount.Sub(current.Amount)
			if diff.IsZero() {
				result = &AdjustmentResult{Balance: current}
				return nil
			}
			moved = diff.Abs()
			txType = domain.TransactionTypeDeposit
			if diff.IsNegative() {
				txType = domain.TransactionTypeWithdrawal
			}
		}

		updated, err := tx.SetBalance(ctx, input.AccountID, newAmount, current.Currency, current.Version)
		if err != nil {
			return err
		}

		now := s.Now()
		rec := &domain.Transaction{
			ID:             s.NewID(),
			AccountID:      input.AccountID,
			Type:           txType,
			Amount:         moved,
			Currency:       current.Currency,
			Status:         domain.TransactionStatusSuccess,
			Description:    describeAdjustment(input.Mode, txType, moved, current.Currency),
			Reference:      s.newReference(adjustmentReferencePrefix),
			IdempotencyKey: key,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.Append(ctx, rec); err != nil {
			return err
		}

		result = &AdjustmentResult{Balance: updated, Transaction: rec}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// adjustmentForKey rebuilds the result of an adjustment committed under key.
// It returns nil, nil when the key is unused.
func (s *LedgerService) adjustmentForKey(ctx context.Context, key string) (*AdjustmentResult, error) {
	prior, err := s.Transactions.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, classify("AdjustBalance", err)
	}
	if len(prior) == 0 {
		return nil, nil
	}
	rec := prior[0]
	balance, err := s.Accounts.GetBalance(ctx, rec.AccountID)
	if err != nil {
		return nil, classify("AdjustBalance", err)
	}
	s.logger(ctx).Info("replaying idempotent adjustment", zap.String("reference", rec.Reference))
	return &AdjustmentResult{Balance: balance, Transaction: rec}, nil
}

func validateAdjustmentAmount(op string, mode Mode, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return domain.NewError(domain.KindInvalidAmount, op, "Balance cannot be negative")
	}
	if mode != ModeSet && amount.IsZero() {
		return domain.NewError(domain.KindInvalidAmount, op, "Amount must be greater than zero")
	}
	if !domain.HasValidScale(amount) {
		return domain.NewError(domain.KindInvalidAmount, op, fmt.Sprintf("amount %s has more than %d decimal places", amount, domain.MinorUnits))
	}
	return nil
}
