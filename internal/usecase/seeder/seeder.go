package seeder

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/ledger-backend/internal/domain"
	"github.com/simaogato/ledger-backend/internal/usecase/provisioning"
)

// Fixed ids of the demo accounts, stable across restarts
var (
	DemoAdminID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	DemoAliceID = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	DemoBobID   = uuid.MustParse("00000000-0000-0000-0000-000000000003")
)

// Account defines an account to be seeded
type Account struct {
	ID             uuid.UUID
	AccountNumber  string
	DisplayName    string
	OpeningBalance decimal.Decimal
	Currency       string
}

// DefaultAccounts is the demo data set used when none is configured
func DefaultAccounts() []Account {
	return []Account{
		{ID: DemoAdminID, AccountNumber: "ACC000000001", DisplayName: "Ledger Admin", OpeningBalance: decimal.Zero},
		{ID: DemoAliceID, AccountNumber: "ACC000000002", DisplayName: "Alice Smith", OpeningBalance: decimal.NewFromInt(1000)},
		{ID: DemoBobID, AccountNumber: "ACC000000003", DisplayName: "Bob Jones", OpeningBalance: decimal.NewFromInt(250)},
	}
}

// AccountOpener is the part of provisioning the seeder needs
type AccountOpener interface {
	OpenAccount(ctx context.Context, input provisioning.OpenAccountInput) (*provisioning.OpenedAccount, error)
}

// Seeder creates the configured accounts when they are missing
type Seeder struct {
	directory domain.Directory
	opener    AccountOpener
	accounts  []Account
}

// NewSeeder creates a new Seeder instance
func NewSeeder(directory domain.Directory, opener AccountOpener, accounts []Account) *Seeder {
	return &Seeder{
		directory: directory,
		opener:    opener,
		accounts:  accounts,
	}
}

// Seed ensures every configured account exists. Existing accounts are left
// untouched, so running it twice is harmless.
func (s *Seeder) Seed(ctx context.Context) (created int, err error) {
	for _, acc := range s.accounts {
		_, err := s.directory.Lookup(ctx, acc.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return created, fmt.Errorf("failed to look up seed account %s: %w", acc.AccountNumber, err)
		}

		_, err = s.opener.OpenAccount(ctx, provisioning.OpenAccountInput{
			DisplayName:    acc.DisplayName,
			InitialBalance: acc.OpeningBalance,
			Currency:       acc.Currency,
			AccountID:      acc.ID,
			AccountNumber:  acc.AccountNumber,
		})
		if err != nil {
			return created, fmt.Errorf("failed to seed account %s: %w", acc.AccountNumber, err)
		}
		created++
	}
	return created, nil
}
