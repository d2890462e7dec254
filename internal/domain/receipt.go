package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receipt summarizes a committed transfer for the sender
type Receipt struct {
	Reference              string
	Amount                 decimal.Decimal
	Currency               string
	SenderAccountID        uuid.UUID
	RecipientAccountID     uuid.UUID
	RecipientName          string
	RecipientAccountNumber string
	Description            string
	Status                 TransactionStatus
	Timestamp              time.Time
}

// NewReceipt builds a receipt from the two legs of a transfer and the
// recipient's directory entry.
func NewReceipt(out, in *Transaction, recipient *DirectoryEntry) *Receipt {
	return &Receipt{
		Reference:              out.Reference,
		Amount:                 out.Amount,
		Currency:               out.Currency,
		SenderAccountID:        out.AccountID,
		RecipientAccountID:     in.AccountID,
		RecipientName:          recipient.DisplayName,
		RecipientAccountNumber: recipient.AccountNumber,
		Description:            out.Description,
		Status:                 out.Status,
		Timestamp:              out.CreatedAt,
	}
}

// Involves reports whether accountID is either party of the transfer
func (r *Receipt) Involves(accountID uuid.UUID) bool {
	return r.SenderAccountID == accountID || r.RecipientAccountID == accountID
}
