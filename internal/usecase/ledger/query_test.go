package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/ledger-backend/internal/domain"
)

func TestGetBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100, 0)

	b, err := f.service.GetBalance(ctx, f.alice)
	require.NoError(t, err)
	assert.True(t, b.Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "USD", b.Currency)

	_, err = f.service.GetBalance(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListTransactions_NewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100, 0)

	_, err := f.service.AdjustBalance(ctx, f.admin, AdjustBalanceInput{AccountID: f.alice, Amount: decimal.NewFromInt(25), Mode: ModeIncrease})
	require.NoError(t, err)
	first, err := f.service.Transfer(ctx, f.self(f.alice), TransferInput{RecipientAccountNumber: bobNumber, Amount: decimal.NewFromInt(40)})
	require.NoError(t, err)
	_, err = f.service.AdjustBalance(ctx, f.admin, AdjustBalanceInput{AccountID: f.alice, Amount: decimal.NewFromInt(55), Mode: ModeSet})
	require.NoError(t, err)

	seq, err := f.service.ListTransactions(ctx, f.alice)
	require.NoError(t, err)

	all, err := Collect(seq, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, domain.TransactionTypeWithdrawal, all[0].Type)
	assert.Equal(t, "Admin balance adjustment: -$30.00", all[0].Description)
	assert.Equal(t, first.Reference, all[1].Reference)
	assert.Equal(t, domain.TransactionTypeDeposit, all[2].Type)

	// Ranging again restarts from the newest record.
	limited, err := Collect(seq, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, all[0].ID, limited[0].ID)
	assert.Equal(t, all[1].ID, limited[1].ID)
}

func TestListTransactions_UnknownAccount(t *testing.T) {
	f := newFixture(t, 100, 0)

	_, err := f.service.ListTransactions(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListTransactions_EmptyHistory(t *testing.T) {
	f := newFixture(t, 100, 0)

	seq, err := f.service.ListTransactions(context.Background(), f.bob)
	require.NoError(t, err)
	recs, err := Collect(seq, 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
