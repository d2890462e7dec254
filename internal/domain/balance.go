package domain

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when an account is opened without one.
const DefaultCurrency = "USD"

// MinorUnits is the number of fractional digits an amount may carry.
const MinorUnits = 2

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// AccountBalance is the current monetary position of one account.
type AccountBalance struct {
	AccountID uuid.UUID
	Amount    decimal.Decimal // never negative
	Currency  string          // ISO-4217 code
	Version   int64           // bumped on every committed write
	UpdatedAt time.Time
}

// Validate checks the balance invariants.
func (b *AccountBalance) Validate() error {
	if b.AccountID == uuid.Nil {
		return errors.New("account id is required")
	}
	if b.Amount.IsNegative() {
		return NewError(KindInvalidAmount, "", "Balance cannot be negative")
	}
	if !ValidCurrency(b.Currency) {
		return errors.New("currency must be a three letter ISO code")
	}
	return nil
}

// Clone returns a copy that can be mutated without touching b.
func (b *AccountBalance) Clone() *AccountBalance {
	c := *b
	return &c
}

// ValidCurrency reports whether code looks like an ISO-4217 currency code.
func ValidCurrency(code string) bool {
	return currencyPattern.MatchString(code)
}

// HasValidScale reports whether amount fits in MinorUnits fractional digits.
func HasValidScale(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(MinorUnits))
}
