package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the closed set of record kinds
type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "deposit"
	TransactionTypeWithdrawal  TransactionType = "withdrawal"
	TransactionTypeTransferOut TransactionType = "transfer_out"
	TransactionTypeReceived    TransactionType = "received"
)

// Valid reports whether t is one of the known record kinds
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransferOut, TransactionTypeReceived:
		return true
	}
	return false
}

// Credits reports whether a record of this kind adds funds to its account
func (t TransactionType) Credits() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeReceived
}

// ParseTransactionType converts a stored or wire value into a TransactionType
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
	return t, nil
}

// TransactionStatus is the closed set of record states
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusSuccess   TransactionStatus = "success"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// Valid reports whether s is one of the known states
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusSuccess, TransactionStatusFailed,
		TransactionStatusRefunded, TransactionStatusCancelled:
		return true
	}
	return false
}

// ParseTransactionStatus converts a stored or wire value into a TransactionStatus
func ParseTransactionStatus(s string) (TransactionStatus, error) {
	st := TransactionStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown transaction status %q", s)
	}
	return st, nil
}

// Transaction is one immutable ledger record owned by a single account.
// A transfer produces two of them sharing the same Reference.
type Transaction struct {
	ID             uuid.UUID
	AccountID      uuid.UUID
	SenderID       *uuid.UUID // set on received legs
	Type           TransactionType
	Amount         decimal.Decimal // always positive
	Currency       string
	Status         TransactionStatus
	Description    string
	Reference      string
	IdempotencyKey string // empty unless the caller supplied one
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate ensures the record adheres to domain rules
func (t *Transaction) Validate() error {
	if t.ID == uuid.Nil {
		return errors.New("transaction id is required")
	}
	if t.AccountID == uuid.Nil {
		return errors.New("transaction account id is required")
	}
	if !t.Type.Valid() {
		return NewError(KindInvalidMode, "", fmt.Sprintf("unknown transaction type %q", t.Type))
	}
	if !t.Status.Valid() {
		return fmt.Errorf("unknown transaction status %q", t.Status)
	}
	if !t.Amount.IsPositive() {
		return NewError(KindInvalidAmount, "", "transaction amount must be positive")
	}
	if !ValidCurrency(t.Currency) {
		return errors.New("transaction currency must be a three letter ISO code")
	}
	if t.Reference == "" {
		return errors.New("transaction reference is required")
	}
	if t.Type == TransactionTypeReceived && t.SenderID == nil {
		return errors.New("received transaction must name its sender")
	}
	return nil
}

// SignedAmount returns the amount with the sign of its effect on the balance
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type.Credits() {
		return t.Amount
	}
	return t.Amount.Neg()
}

// TransferPair picks the two legs of a transfer out of the records that share
// a reference. It fails unless exactly one transfer_out and one received leg
// exist with matching amount and currency.
func TransferPair(records []*Transaction) (out, in *Transaction, err error) {
	for _, r := range records {
		switch r.Type {
		case TransactionTypeTransferOut:
			if out != nil {
				return nil, nil, errors.New("transfer has more than one outgoing leg")
			}
			out = r
		case TransactionTypeReceived:
			if in != nil {
				return nil, nil, errors.New("transfer has more than one incoming leg")
			}
			in = r
		default:
			return nil, nil, fmt.Errorf("record %s is not part of a transfer", r.ID)
		}
	}
	if out == nil || in == nil {
		return nil, nil, errors.New("transfer is missing a leg")
	}
	if !out.Amount.Equal(in.Amount) || out.Currency != in.Currency {
		return nil, nil, errors.New("transfer legs disagree on amount or currency")
	}
	return out, in, nil
}
