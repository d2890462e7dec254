package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/simaogato/ledger-backend/internal/domain"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// FormatMoney renders amount with an explicit sign, e.g. "+$25.00" or
// "-12.50 CHF" for currencies without a symbol.
func FormatMoney(sign string, amount decimal.Decimal, currency string) string {
	fixed := amount.StringFixed(domain.MinorUnits)
	if sym, ok := currencySymbols[currency]; ok {
		return sign + sym + fixed
	}
	return sign + fixed + " " + currency
}

func describeAdjustment(mode Mode, txType domain.TransactionType, amount decimal.Decimal, currency string) string {
	sign := "+"
	if txType == domain.TransactionTypeWithdrawal {
		sign = "-"
	}
	money := FormatMoney(sign, amount, currency)

	switch mode {
	case ModeIncrease:
		return "Admin balance increase: " + money
	case ModeReduce:
		return "Admin balance reduction: " + money
	default:
		return "Admin balance adjustment: " + money
	}
}
