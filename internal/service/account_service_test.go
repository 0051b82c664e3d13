package service

import (
	"context"
	"testing"

	"marketplace/internal/model"
	"marketplace/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountService_ExchangeToSpendable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	testutil.SeedAccount(t, f.db, sellerID, 0, 5000)

	account, err := f.accounts.ExchangeToSpendable(ctx, seller, 2000)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), account.Spendable)
	assert.Equal(t, int64(3000), account.Withdrawable)

	_, err = f.accounts.ExchangeToSpendable(ctx, seller, 3001)
	assert.ErrorIs(t, err, model.ErrInsufficientFunds)

	_, err = f.accounts.ExchangeToSpendable(ctx, seller, -1)
	assert.ErrorIs(t, err, model.ErrValidation)

	trans, total, err := f.accounts.ListTransactions(ctx, seller, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, trans, 2)
	for _, tr := range trans {
		assert.Equal(t, model.TransactionTypeExchange, tr.Type)
		assert.Equal(t, tr.BalanceBefore+tr.Amount, tr.BalanceAfter)
	}
}

func TestAccountService_GetAccountCreatesEmpty(t *testing.T) {
	f := newFixture(t)

	account, err := f.accounts.GetAccount(context.Background(), buyer)
	require.NoError(t, err)
	assert.Equal(t, buyerID, account.UserID)
	assert.Zero(t, account.Spendable)

	_, err = f.accounts.GetAccount(context.Background(), Actor{})
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestDepositService_Resolve(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	approved, err := f.deposits.CreateDeposit(ctx, buyer, 10000, "transfer-001.jpg")
	require.NoError(t, err)
	rejected, err := f.deposits.CreateDeposit(ctx, buyer, 7000, "transfer-002.jpg")
	require.NoError(t, err)

	_, err = f.deposits.Resolve(ctx, buyer, approved.ID, model.DecisionApprove, "")
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = f.deposits.Resolve(ctx, admin, approved.ID, model.DecisionApprove, "ok")
	require.NoError(t, err)
	_, err = f.deposits.Resolve(ctx, admin, rejected.ID, model.DecisionReject, "blurry proof")
	require.NoError(t, err)

	assert.Equal(t, int64(10000), f.account(t, buyerID).Spendable)

	_, err = f.deposits.Resolve(ctx, admin, approved.ID, model.DecisionApprove, "again")
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.Equal(t, int64(10000), f.account(t, buyerID).Spendable)

	_, err = f.deposits.CreateDeposit(ctx, buyer, 100, "  ")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestSettingService_Update(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	policy, err := f.settings.View(ctx, admin)
	require.NoError(t, err)
	assert.True(t, policy.NormalFeeRate.Equal(decimal.RequireFromString("0.5")))
	assert.Equal(t, int64(1000000), policy.ThresholdAmount)

	_, err = f.settings.View(ctx, seller)
	assert.ErrorIs(t, err, model.ErrForbidden)

	req := &UpdateSettingRequest{
		NormalFeeRate:      decimal.RequireFromString("1.5"),
		FeeThresholdAmount: 500000,
		ThresholdFeeRate:   decimal.RequireFromString("1"),
	}
	_, err = f.settings.Update(ctx, seller, req)
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = f.settings.Update(ctx, admin, &UpdateSettingRequest{NormalFeeRate: decimal.NewFromInt(101), ThresholdFeeRate: decimal.Zero})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = f.settings.Update(ctx, admin, req)
	require.NoError(t, err)

	policy, err = f.settings.Current(ctx)
	require.NoError(t, err)
	assert.True(t, policy.NormalFeeRate.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, int64(500000), policy.ThresholdAmount)
	assert.Equal(t, int64(7500), policy.Fee(499999))
	assert.Equal(t, int64(5000), policy.Fee(500000))
}
