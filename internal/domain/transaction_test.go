package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validRecord() Transaction {
	return Transaction{
		ID:          uuid.New(),
		AccountID:   uuid.New(),
		Type:        TransactionTypeDeposit,
		Amount:      decimal.NewFromInt(25),
		Currency:    "USD",
		Status:      TransactionStatusSuccess,
		Description: "Admin balance increase: +$25.00",
		Reference:   "ADJ-1",
		CreatedAt:   time.Now(),
	}
}

func TestTransaction_Validate(t *testing.T) {
	sender := uuid.New()

	tests := []struct {
		name    string
		mutate  func(tx *Transaction)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "Valid deposit should pass",
			mutate:  func(tx *Transaction) {},
			wantErr: false,
		},
		{
			name: "Received leg with sender should pass",
			mutate: func(tx *Transaction) {
				tx.Type = TransactionTypeReceived
				tx.SenderID = &sender
			},
			wantErr: false,
		},
		{
			name:    "Missing id should fail",
			mutate:  func(tx *Transaction) { tx.ID = uuid.Nil },
			wantErr: true,
			errMsg:  "transaction id is required",
		},
		{
			name:    "Zero amount should fail",
			mutate:  func(tx *Transaction) { tx.Amount = decimal.Zero },
			wantErr: true,
			errMsg:  "transaction amount must be positive",
		},
		{
			name:    "Negative amount should fail",
			mutate:  func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-5) },
			wantErr: true,
			errMsg:  "transaction amount must be positive",
		},
		{
			name:    "Unknown type should fail",
			mutate:  func(tx *Transaction) { tx.Type = "refund" },
			wantErr: true,
			errMsg:  "unknown transaction type",
		},
		{
			name:    "Unknown status should fail",
			mutate:  func(tx *Transaction) { tx.Status = "done" },
			wantErr: true,
			errMsg:  "unknown transaction status",
		},
		{
			name:    "Lower case currency should fail",
			mutate:  func(tx *Transaction) { tx.Currency = "usd" },
			wantErr: true,
			errMsg:  "three letter ISO code",
		},
		{
			name:    "Missing reference should fail",
			mutate:  func(tx *Transaction) { tx.Reference = "" },
			wantErr: true,
			errMsg:  "reference is required",
		},
		{
			name:    "Received leg without sender should fail",
			mutate:  func(tx *Transaction) { tx.Type = TransactionTypeReceived },
			wantErr: true,
			errMsg:  "must name its sender",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validRecord()
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTransaction_SignedAmount(t *testing.T) {
	tx := validRecord()
	assert.True(t, tx.SignedAmount().Equal(decimal.NewFromInt(25)))

	tx.Type = TransactionTypeWithdrawal
	assert.True(t, tx.SignedAmount().Equal(decimal.NewFromInt(-25)))

	tx.Type = TransactionTypeTransferOut
	assert.True(t, tx.SignedAmount().IsNegative())
}

func TestParseTransactionType(t *testing.T) {
	for _, s := range []string{"deposit", "withdrawal", "transfer_out", "received"} {
		got, err := ParseTransactionType(s)
		assert.NoError(t, err)
		assert.Equal(t, s, string(got))
	}

	_, err := ParseTransactionType("transfer_in")
	assert.Error(t, err)
}

func TestParseTransactionStatus(t *testing.T) {
	for _, s := range []string{"pending", "success", "failed", "refunded", "cancelled"} {
		got, err := ParseTransactionStatus(s)
		assert.NoError(t, err)
		assert.Equal(t, s, string(got))
	}

	_, err := ParseTransactionStatus("completed")
	assert.Error(t, err)
}

func TestTransferPair(t *testing.T) {
	sender := uuid.New()
	out := validRecord()
	out.Type = TransactionTypeTransferOut
	out.AccountID = sender
	in := validRecord()
	in.Type = TransactionTypeReceived
	in.SenderID = &sender

	gotOut, gotIn, err := TransferPair([]*Transaction{&in, &out})
	assert.NoError(t, err)
	assert.Same(t, &out, gotOut)
	assert.Same(t, &in, gotIn)

	_, _, err = TransferPair([]*Transaction{&out})
	assert.ErrorContains(t, err, "missing a leg")

	deposit := validRecord()
	_, _, err = TransferPair([]*Transaction{&out, &deposit})
	assert.ErrorContains(t, err, "not part of a transfer")

	mismatched := in
	mismatched.Amount = decimal.NewFromInt(26)
	_, _, err = TransferPair([]*Transaction{&out, &mismatched})
	assert.ErrorContains(t, err, "disagree")
}
