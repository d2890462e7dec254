package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/ledger-backend/internal/domain"
)

func TestAdjustBalance_Modes(t *testing.T) {
	tests := []struct {
		name        string
		mode        Mode
		amount      string
		wantBalance string
		wantType    domain.TransactionType
		wantAmount  string
		wantDesc    string
	}{
		{
			name:        "Increase adds and records a deposit",
			mode:        ModeIncrease,
			amount:      "25",
			wantBalance: "125",
			wantType:    domain.TransactionTypeDeposit,
			wantAmount:  "25",
			wantDesc:    "Admin balance increase: +$25.00",
		},
		{
			name:        "Reduce subtracts and records a withdrawal",
			mode:        ModeReduce,
			amount:      "30.50",
			wantBalance: "69.50",
			wantType:    domain.TransactionTypeWithdrawal,
			wantAmount:  "30.50",
			wantDesc:    "Admin balance reduction: -$30.50",
		},
		{
			name:        "Reduce to exactly zero is allowed",
			mode:        ModeReduce,
			amount:      "100",
			wantBalance: "0",
			wantType:    domain.TransactionTypeWithdrawal,
			wantAmount:  "100",
			wantDesc:    "Admin balance reduction: -$100.00",
		},
		{
			name:        "Set below current records a withdrawal of the difference",
			mode:        ModeSet,
			amount:      "55",
			wantBalance: "55",
			wantType:    domain.TransactionTypeWithdrawal,
			wantAmount:  "45",
			wantDesc:    "Admin balance adjustment: -$45.00",
		},
		{
			name:        "Set above current records a deposit of the difference",
			mode:        ModeSet,
			amount:      "160",
			wantBalance: "160",
			wantType:    domain.TransactionTypeDeposit,
			wantAmount:  "60",
			wantDesc:    "Admin balance adjustment: +$60.00",
		},
		{
			name:        "Set to zero empties the account",
			mode:        ModeSet,
			amount:      "0",
			wantBalance: "0",
			wantType:    domain.TransactionTypeWithdrawal,
			wantAmount:  "100",
			wantDesc:    "Admin balance adjustment: -$100.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, 100, 0)

			result, err := f.service.AdjustBalance(ctx, f.admin, AdjustBalanceInput{
				AccountID: f.alice,
				Amount:    decimal.RequireFromString(tt.amount),
				Mode:      tt.mode,
			})
			require.NoError(t, err)
			require.NotNil(t, result.Transaction)

			assert.True(t, result.Balance.Amount.Equal(decimal.RequireFromString(tt.wantBalance)), "balance %s", result.Balance.Amount)
			assert.True(t, f.balance(t, f.alice).Equal(decimal.RequireFromString(tt.wantBalance)))

			rec := result.Transaction
			assert.Equal(t, tt.wantType, rec.Type)
			assert.True(t, rec.Amount.Equal(decimal.RequireFromString(tt.wantAmount)), "recorded %s", rec.Amount)
			assert.Equal(t, tt.wantDesc, rec.Description)
			assert.Equal(t, domain.TransactionStatusSuccess, rec.Status)
			assert.Equal(t, "USD", rec.Currency)
			assert.Contains(t, rec.Reference, "ADJ-")

			history := f.history(t, f.alice)
			require.Len(t, history, 1)
			assert.Equal(t, rec.ID, history[0].ID)
		})
	}
}

func TestAdjustBalance_SetToCurrentWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100, 0)

	result, err := f.service.AdjustBalance(ctx, f.admin, AdjustBalanceInput{
		AccountID: f.alice,
		Amount:    decimal.RequireFromString("100.00"),
		Mode:      ModeSet,
	})
	require.NoError(t, err)
	assert.Nil(t, result.Transaction)
	assert.True(t, result.Balance.Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, int64(0), result.Balance.Version)
	assert.Empty(t, f.history(t, f.alice))
}

func TestAdjustBalance_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		input   func(f *fixture) AdjustBalanceInput
		wantErr error
		errMsg  string
	}{
		{
			name: "Reduce below zero is insufficient funds",
			input: func(f *fixture) AdjustBalanceInput {
				return AdjustBalanceInput{AccountID: f.alice, Amount: decimal.NewFromInt(150), Mode: ModeReduce}
			},
			wantErr: domain.ErrInsufficientFunds,
			errMsg:  "Balance cannot be negative",
		},
		{
			name: "Unknown mode is rejected",
			input: func(f *fixture) AdjustBalanceInput {
				return AdjustBalanceInput{AccountID: f.alice, Amount: decimal.NewFromInt(1), Mode: "double"}
			},
			wantErr: domain.ErrInvalidMode,
			errMsg:  "invalid adjustment type",
		},
		{
			name: "Zero increase is invalid",
			input: func(f *fixture) AdjustBalanceInput {
				return AdjustBalanceInput{AccountID: f.alice, Amount: decimal.Zero, Mode: ModeIncrease}
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "Negative set target is invalid",
			input: func(f *fixture) AdjustBalanceInput {
				return AdjustBalanceInput{AccountID: f.alice, Amount: decimal.NewFromInt(-5), Mode: ModeSet}
			},
			wantErr: domain.ErrInvalidAmount,
			errMsg:  "Balance cannot be negative",
		},
		{
			name: "Sub-cent amounts are invalid",
			input: func(f *fixture) AdjustBalanceInput {
				return AdjustBalanceInput{AccountID: f.alice, Amount: decimal.RequireFromString("1.005"), Mode: ModeIncrease}
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "Unknown account is not found",
			input: func(f *fixture) AdjustBalanceInput {
				return AdjustBalanceInput{AccountID: uuid.New(), Amount: decimal.NewFromInt(1), Mode: ModeIncrease}
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 100, 0)

			result, err := f.service.AdjustBalance(context.Background(), f.admin, tt.input(f))
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}

			assert.True(t, f.balance(t, f.alice).Equal(decimal.NewFromInt(100)))
			assert.Empty(t, f.history(t, f.alice))
		})
	}
}

func TestAdjustBalance_RequiresAdminCapability(t *testing.T) {
	f := newFixture(t, 100, 0)

	_, err := f.service.AdjustBalance(context.Background(), domain.AdminCapability{}, AdjustBalanceInput{
		AccountID: f.alice, Amount: decimal.NewFromInt(1), Mode: ModeIncrease,
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAdjustBalance_IdempotencyKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100, 0)
	input := AdjustBalanceInput{AccountID: f.alice, Amount: decimal.NewFromInt(10), Mode: ModeIncrease, IdempotencyKey: "bonus-2024-03"}

	first, err := f.service.AdjustBalance(ctx, f.admin, input)
	require.NoError(t, err)
	second, err := f.service.AdjustBalance(ctx, f.admin, input)
	require.NoError(t, err)

	assert.Equal(t, first.Transaction.ID, second.Transaction.ID)
	assert.True(t, f.balance(t, f.alice).Equal(decimal.NewFromInt(110)))
	assert.Len(t, f.history(t, f.alice), 1)
}

func TestAdjustBalance_KeyedRecordIDCollision(t *testing.T) {
	ctx := context.Background()
	fixedID := uuid.MustParse("01890a5d-ac96-774b-bcce-b302099a8057")
	f := newFixture(t, 100, 0, WithIDGenerator(func() uuid.UUID { return fixedID }))

	_, err := f.service.AdjustBalance(ctx, f.admin, AdjustBalanceInput{AccountID: f.alice, Amount: decimal.NewFromInt(5), Mode: ModeIncrease})
	require.NoError(t, err)

	result, err := f.service.AdjustBalance(ctx, f.admin, AdjustBalanceInput{
		AccountID:      f.alice,
		Amount:         decimal.NewFromInt(5),
		Mode:           ModeIncrease,
		IdempotencyKey: "k1",
	})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrDuplicateID)
	assert.True(t, f.balance(t, f.alice).Equal(decimal.NewFromInt(105)))
}

func TestAdjustBalance_KeyedNoOpSetIsNotRemembered(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100, 0)
	input := AdjustBalanceInput{AccountID: f.alice, Amount: decimal.NewFromInt(100), Mode: ModeSet, IdempotencyKey: "reset-1"}

	first, err := f.service.AdjustBalance(ctx, f.admin, input)
	require.NoError(t, err)
	assert.Nil(t, first.Transaction)

	_, err = f.service.AdjustBalance(ctx, f.admin, AdjustBalanceInput{AccountID: f.alice, Amount: decimal.NewFromInt(30), Mode: ModeReduce})
	require.NoError(t, err)

	// nothing was stored under the key, so the retry applies the set
	second, err := f.service.AdjustBalance(ctx, f.admin, input)
	require.NoError(t, err)
	require.NotNil(t, second.Transaction)
	assert.Equal(t, domain.TransactionTypeDeposit, second.Transaction.Type)
	assert.True(t, f.balance(t, f.alice).Equal(decimal.NewFromInt(100)))
}

func TestAdjustBalance_PublishesEvent(t *testing.T) {
	ctx := context.Background()
	publisher := new(MockEventPublisher)
	f := newFixture(t, 100, 0)
	f.service.Events = publisher

	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e domain.LedgerEvent) bool {
		return e.Type == domain.EventBalanceAdjusted &&
			e.AccountID == f.alice &&
			e.Mode == "reduce" &&
			e.Amount.Equal(decimal.NewFromInt(-20))
	})).Return(errors.New("broker down"))

	_, err := f.service.AdjustBalance(ctx, f.admin, AdjustBalanceInput{AccountID: f.alice, Amount: decimal.NewFromInt(20), Mode: ModeReduce})
	require.NoError(t, err, "publish failures must not fail a committed adjustment")

	publisher.AssertExpectations(t)
	assert.True(t, f.balance(t, f.alice).Equal(decimal.NewFromInt(80)))
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"increase", "reduce", "set"} {
		m, err := ParseMode(s)
		assert.NoError(t, err)
		assert.Equal(t, s, string(m))
	}
	_, err := ParseMode("")
	assert.ErrorIs(t, err, domain.ErrInvalidMode)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "+$25.00", FormatMoney("+", decimal.NewFromInt(25), "USD"))
	assert.Equal(t, "-€3.10", FormatMoney("-", decimal.RequireFromString("3.1"), "EUR"))
	assert.Equal(t, "+12.50 CHF", FormatMoney("+", decimal.RequireFromString("12.5"), "CHF"))
}
