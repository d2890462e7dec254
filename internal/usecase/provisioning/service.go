package provisioning

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simaogato/ledger-backend/internal/domain"
)

const maxNumberAttempts = 5

// OpenAccountInput represents the input for opening an account
type OpenAccountInput struct {
	DisplayName    string
	InitialBalance decimal.Decimal
	Currency       string    // defaults to domain.DefaultCurrency
	AccountID      uuid.UUID // optional; generated when nil
	AccountNumber  string    // optional; generated when empty
}

// OpenedAccount is the directory entry and opening balance of a new account
type OpenedAccount struct {
	Entry   *domain.DirectoryEntry
	Balance *domain.AccountBalance
}

// AccountService opens accounts for seeding and tests
type AccountService struct {
	Registry domain.AccountRegistry
	Logger   *zap.Logger
	Now      func() time.Time
	Digits   func() int // three random digits appended to account numbers
}

// NewAccountService creates a new AccountService instance
func NewAccountService(registry domain.AccountRegistry, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		Registry: registry,
		Logger:   logger,
		Now:      time.Now,
		Digits:   func() int { return rand.IntN(1000) },
	}
}

// GenerateAccountNumber builds "ACC" + the last six digits of the unix
// millisecond clock + three random digits.
func GenerateAccountNumber(now time.Time, digits int) string {
	return fmt.Sprintf("ACC%06d%03d", now.UnixMilli()%1_000_000, digits%1000)
}

// OpenAccount registers a directory entry and its opening balance atomically.
// A generated account number that collides is regenerated a few times.
func (s *AccountService) OpenAccount(ctx context.Context, input OpenAccountInput) (*OpenedAccount, error) {
	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		return nil, errors.New("display name is required")
	}
	if input.InitialBalance.IsNegative() {
		return nil, domain.NewError(domain.KindInvalidAmount, "OpenAccount", "Balance cannot be negative")
	}
	if !domain.HasValidScale(input.InitialBalance) {
		return nil, domain.NewError(domain.KindInvalidAmount, "OpenAccount", "opening balance has too many decimal places")
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	accountID := input.AccountID
	if accountID == uuid.Nil {
		accountID = uuid.New()
	}

	attempts := maxNumberAttempts
	if input.AccountNumber != "" {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		number := input.AccountNumber
		if number == "" {
			number = GenerateAccountNumber(s.Now(), s.Digits())
		}

		now := s.Now()
		entry := &domain.DirectoryEntry{
			AccountNumber: number,
			AccountID:     accountID,
			DisplayName:   name,
			CreatedAt:     now,
		}
		balance := &domain.AccountBalance{
			AccountID: accountID,
			Amount:    input.InitialBalance,
			Currency:  currency,
			UpdatedAt: now,
		}
		if err := entry.Validate(); err != nil {
			return nil, err
		}
		if err := balance.Validate(); err != nil {
			return nil, err
		}

		lastErr = s.Registry.Register(ctx, entry, balance)
		if lastErr == nil {
			s.Logger.Info("account opened",
				zap.String("account_id", accountID.String()),
				zap.String("account_number", number),
			)
			return &OpenedAccount{Entry: entry, Balance: balance}, nil
		}
		if !errors.Is(lastErr, domain.ErrDuplicateID) {
			return nil, lastErr
		}
	}
	return nil, fmt.Errorf("failed to allocate an account number: %w", lastErr)
}
