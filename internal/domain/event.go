package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType names a ledger event published after commit
type EventType string

const (
	EventBalanceAdjusted   EventType = "BalanceAdjusted"
	EventTransferCompleted EventType = "TransferCompleted"
)

// LedgerEvent is the payload announced to downstream consumers once an
// operation has committed.
type LedgerEvent struct {
	Type           EventType       `json:"type"`
	Reference      string          `json:"reference"`
	AccountID      uuid.UUID       `json:"account_id"`
	CounterpartyID *uuid.UUID      `json:"counterparty_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Mode           string          `json:"mode,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}
