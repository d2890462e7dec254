package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/ledger-backend/internal/domain"
)

func TestTransfer_MovesFundsAndRecordsBothLegs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100, 0)

	receipt, err := f.service.Transfer(ctx, f.self(f.alice), TransferInput{
		RecipientAccountNumber: bobNumber,
		Amount:                 decimal.NewFromInt(40),
	})
	require.NoError(t, err)

	assert.True(t, f.balance(t, f.alice).Equal(decimal.NewFromInt(60)))
	assert.True(t, f.balance(t, f.bob).Equal(decimal.NewFromInt(40)))

	assert.True(t, receipt.Amount.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, "Bob Jones", receipt.RecipientName)
	assert.Equal(t, bobNumber, receipt.RecipientAccountNumber)
	assert.Equal(t, "Transfer to Bob Jones", receipt.Description)
	assert.Equal(t, f.alice, receipt.SenderAccountID)
	assert.Equal(t, f.bob, receipt.RecipientAccountID)
	assert.Contains(t, receipt.Reference, "TRF-")
	assert.False(t, receipt.Timestamp.IsZero())

	out := f.history(t, f.alice)
	in := f.history(t, f.bob)
	require.Len(t, out, 1)
	require.Len(t, in, 1)

	assert.Equal(t, domain.TransactionTypeTransferOut, out[0].Type)
	assert.Equal(t, domain.TransactionTypeReceived, in[0].Type)
	assert.Equal(t, receipt.Reference, out[0].Reference)
	assert.Equal(t, receipt.Reference, in[0].Reference)
	assert.True(t, out[0].Amount.Equal(in[0].Amount))
	require.NotNil(t, in[0].SenderID)
	assert.Equal(t, f.alice, *in[0].SenderID)

	records, err := f.store.FindByReference(ctx, receipt.Reference)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestTransfer_KeepsCallerDescription(t *testing.T) {
	f := newFixture(t, 100, 0)

	receipt, err := f.service.Transfer(context.Background(), f.self(f.alice), TransferInput{
		RecipientAccountNumber: " " + bobNumber + " ",
		Amount:                 decimal.RequireFromString("12.34"),
		Description:            "Dinner",
	})
	require.NoError(t, err)
	assert.Equal(t, "Dinner", receipt.Description)
	assert.True(t, f.balance(t, f.alice).Equal(decimal.RequireFromString("87.66")))
}

func TestTransfer_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		sender  func(f *fixture) domain.SelfCapability
		input   TransferInput
		wantErr error
		errMsg  string
	}{
		{
			name:    "Insufficient balance",
			input:   TransferInput{RecipientAccountNumber: bobNumber, Amount: decimal.NewFromInt(101)},
			wantErr: domain.ErrInsufficientFunds,
			errMsg:  "Insufficient balance",
		},
		{
			name:    "Transfer to self",
			input:   TransferInput{RecipientAccountNumber: aliceNumber, Amount: decimal.NewFromInt(1)},
			wantErr: domain.ErrSelfTransfer,
			errMsg:  "Cannot transfer to your own account",
		},
		{
			name:    "Unknown recipient",
			input:   TransferInput{RecipientAccountNumber: "ACC999999999", Amount: decimal.NewFromInt(1)},
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "Zero amount",
			input:   TransferInput{RecipientAccountNumber: bobNumber, Amount: decimal.Zero},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "Negative amount",
			input:   TransferInput{RecipientAccountNumber: bobNumber, Amount: decimal.NewFromInt(-10)},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "Fractional cents",
			input:   TransferInput{RecipientAccountNumber: bobNumber, Amount: decimal.RequireFromString("0.001")},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "Missing capability",
			sender:  func(f *fixture) domain.SelfCapability { return domain.SelfCapability{} },
			input:   TransferInput{RecipientAccountNumber: bobNumber, Amount: decimal.NewFromInt(1)},
			wantErr: domain.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 100, 0)
			sender := f.self(f.alice)
			if tt.sender != nil {
				sender = tt.sender(f)
			}

			receipt, err := f.service.Transfer(context.Background(), sender, tt.input)
			assert.Nil(t, receipt)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}

			assert.True(t, f.balance(t, f.alice).Equal(decimal.NewFromInt(100)))
			assert.True(t, f.balance(t, f.bob).IsZero())
			assert.Empty(t, f.history(t, f.alice))
			assert.Empty(t, f.history(t, f.bob))
		})
	}
}

func TestTransfer_CurrencyMismatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100, 0)
	euro := domain.DirectoryEntry{AccountNumber: "ACC000000003", AccountID: uuid.New(), DisplayName: "Chloe"}
	require.NoError(t, f.store.Register(ctx, &euro, &domain.AccountBalance{AccountID: euro.AccountID, Amount: decimal.Zero, Currency: "EUR"}))

	_, err := f.service.Transfer(ctx, f.self(f.alice), TransferInput{RecipientAccountNumber: "ACC000000003", Amount: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)
	assert.True(t, f.balance(t, f.alice).Equal(decimal.NewFromInt(100)))
}

func TestTransfer_IdempotentRetry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100, 0)
	input := TransferInput{RecipientAccountNumber: bobNumber, Amount: decimal.NewFromInt(30), IdempotencyKey: "checkout-42"}

	first, err := f.service.Transfer(ctx, f.self(f.alice), input)
	require.NoError(t, err)
	second, err := f.service.Transfer(ctx, f.self(f.alice), input)
	require.NoError(t, err)

	assert.Equal(t, first.Reference, second.Reference)
	assert.True(t, f.balance(t, f.alice).Equal(decimal.NewFromInt(70)))
	assert.True(t, f.balance(t, f.bob).Equal(decimal.NewFromInt(30)))
	assert.Len(t, f.history(t, f.alice), 1)
	assert.Len(t, f.history(t, f.bob), 1)

	// The same key from another caller is a different request.
	_, err = f.service.Transfer(ctx, f.self(f.bob), TransferInput{RecipientAccountNumber: aliceNumber, Amount: decimal.NewFromInt(5), IdempotencyKey: "checkout-42"})
	require.NoError(t, err)
	assert.True(t, f.balance(t, f.bob).Equal(decimal.NewFromInt(25)))
}

func TestTransfer_StorageFailureRollsBackEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100, 0)
	f.service.UnitOfWork = &faultyUnitOfWork{inner: f.store, failAppend: 2}

	_, err := f.service.Transfer(ctx, f.self(f.alice), TransferInput{RecipientAccountNumber: bobNumber, Amount: decimal.NewFromInt(40)})
	assert.ErrorIs(t, err, domain.ErrStorageFailure)
	assert.ErrorIs(t, err, errDiskFull)

	assert.True(t, f.balance(t, f.alice).Equal(decimal.NewFromInt(100)))
	assert.True(t, f.balance(t, f.bob).IsZero())
	assert.Empty(t, f.history(t, f.alice))
	assert.Empty(t, f.history(t, f.bob))
}

func TestTransfer_RetriesConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100, 0)
	uow := &faultyUnitOfWork{inner: f.store, conflicts: 2}
	f.service.UnitOfWork = uow

	_, err := f.service.Transfer(ctx, f.self(f.alice), TransferInput{RecipientAccountNumber: bobNumber, Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)
	assert.Equal(t, 3, uow.commitCalls)
	assert.True(t, f.balance(t, f.bob).Equal(decimal.NewFromInt(10)))
}

func TestTransfer_SurfacesConflictAfterRetryBudget(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100, 0)
	uow := &faultyUnitOfWork{inner: f.store, conflicts: 10}
	f.service.UnitOfWork = uow

	_, err := f.service.Transfer(ctx, f.self(f.alice), TransferInput{RecipientAccountNumber: bobNumber, Amount: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 3, uow.commitCalls)
	assert.True(t, f.balance(t, f.alice).Equal(decimal.NewFromInt(100)))
}

func TestTransfer_CancelledContextLeavesNoTrace(t *testing.T) {
	f := newFixture(t, 100, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service.Transfer(ctx, f.self(f.alice), TransferInput{RecipientAccountNumber: bobNumber, Amount: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, f.balance(t, f.alice).Equal(decimal.NewFromInt(100)))
	assert.Empty(t, f.history(t, f.bob))
}

func TestTransfer_PublishesEventAfterCommit(t *testing.T) {
	ctx := context.Background()
	publisher := new(MockEventPublisher)
	f := newFixture(t, 100, 0)
	f.service.Events = publisher

	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e domain.LedgerEvent) bool {
		return e.Type == domain.EventTransferCompleted &&
			e.AccountID == f.alice &&
			e.CounterpartyID != nil && *e.CounterpartyID == f.bob &&
			e.Amount.Equal(decimal.NewFromInt(15))
	})).Return(nil).Once()

	receipt, err := f.service.Transfer(ctx, f.self(f.alice), TransferInput{RecipientAccountNumber: bobNumber, Amount: decimal.NewFromInt(15)})
	require.NoError(t, err)
	publisher.AssertExpectations(t)

	event := publisher.Calls[0].Arguments.Get(1).(domain.LedgerEvent)
	assert.Equal(t, receipt.Reference, event.Reference)
}

func TestGetReceipt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100, 0)

	receipt, err := f.service.Transfer(ctx, f.self(f.alice), TransferInput{RecipientAccountNumber: bobNumber, Amount: decimal.NewFromInt(40), Description: "Rent"})
	require.NoError(t, err)

	got, err := f.service.GetReceipt(ctx, receipt.Reference)
	require.NoError(t, err)
	assert.Equal(t, receipt.Reference, got.Reference)
	assert.Equal(t, "Bob Jones", got.RecipientName)
	assert.Equal(t, bobNumber, got.RecipientAccountNumber)
	assert.Equal(t, "Rent", got.Description)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(40)))
	assert.True(t, got.Timestamp.Equal(receipt.Timestamp))

	_, err = f.service.GetReceipt(ctx, "TRF-missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	adj, err := f.service.AdjustBalance(ctx, f.admin, AdjustBalanceInput{AccountID: f.alice, Amount: decimal.NewFromInt(1), Mode: ModeIncrease})
	require.NoError(t, err)
	_, err = f.service.GetReceipt(ctx, adj.Transaction.Reference)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
