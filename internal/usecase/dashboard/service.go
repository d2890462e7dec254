package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/ledger-backend/internal/domain"
)

// DefaultRecent is how many history items a summary carries by default
const DefaultRecent = 10

// HistoryItem is a record decorated with the sender's display name
type HistoryItem struct {
	*domain.Transaction
	SenderName string // empty when the record has no sender
}

// AccountSummary is the account overview shown to its holder
type AccountSummary struct {
	AccountID     uuid.UUID
	DisplayName   string
	AccountNumber string
	Balance       decimal.Decimal
	Currency      string
	Recent        []HistoryItem
}

// Recipient is the public view of an account used to confirm a transfer
type Recipient struct {
	DisplayName   string
	AccountNumber string
}

// DashboardService handles read-only account views
type DashboardService struct {
	Accounts     domain.AccountStore
	Transactions domain.TransactionLog
	Directory    domain.Directory
}

// NewDashboardService creates a new DashboardService instance
func NewDashboardService(
	accounts domain.AccountStore,
	transactions domain.TransactionLog,
	directory domain.Directory,
) *DashboardService {
	return &DashboardService{
		Accounts:     accounts,
		Transactions: transactions,
		Directory:    directory,
	}
}

// GetAccountSummary assembles name, number, balance and recent history
// Logic:
//  1. Load the directory entry and the balance
//  2. Take the newest `recent` records (DefaultRecent when <= 0)
//  3. Resolve sender names for received legs, once per sender
func (s *DashboardService) GetAccountSummary(ctx context.Context, accountID uuid.UUID, recent int) (*AccountSummary, error) {
	// 1. Entry and balance
	entry, err := s.Directory.Lookup(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	balance, err := s.Accounts.GetBalance(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load balance: %w", err)
	}

	// 2. Recent history
	if recent <= 0 {
		recent = DefaultRecent
	}
	items := make([]HistoryItem, 0, recent)
	names := map[uuid.UUID]string{}
	for rec, err := range s.Transactions.ListByAccount(ctx, accountID) {
		if err != nil {
			return nil, fmt.Errorf("failed to list transactions: %w", err)
		}

		// 3. Sender names
		item := HistoryItem{Transaction: rec}
		if rec.SenderID != nil {
			name, ok := names[*rec.SenderID]
			if !ok {
				name, err = s.senderName(ctx, *rec.SenderID)
				if err != nil {
					return nil, err
				}
				names[*rec.SenderID] = name
			}
			item.SenderName = name
		}
		items = append(items, item)
		if len(items) >= recent {
			break
		}
	}

	return &AccountSummary{
		AccountID:     accountID,
		DisplayName:   entry.DisplayName,
		AccountNumber: entry.AccountNumber,
		Balance:       balance.Amount,
		Currency:      balance.Currency,
		Recent:        items,
	}, nil
}

// LookupRecipient returns the public view of the account behind a number
func (s *DashboardService) LookupRecipient(ctx context.Context, accountNumber string) (*Recipient, error) {
	entry, err := s.Directory.Resolve(ctx, strings.TrimSpace(accountNumber))
	if err != nil {
		return nil, err
	}
	return &Recipient{DisplayName: entry.DisplayName, AccountNumber: entry.AccountNumber}, nil
}

func (s *DashboardService) senderName(ctx context.Context, id uuid.UUID) (string, error) {
	entry, err := s.Directory.Lookup(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return "Unknown", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve sender: %w", err)
	}
	return entry.DisplayName, nil
}
