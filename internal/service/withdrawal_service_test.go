package service

import (
	"context"
	"testing"

	"marketplace/internal/model"
	"marketplace/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validWithdrawal(amount int64) *WithdrawalRequest {
	return &WithdrawalRequest{
		Amount:        amount,
		BankName:      "BCA",
		AccountNumber: "1234567890",
		AccountHolder: "Seller One",
	}
}

func TestWithdrawalService_RejectThenApprove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	testutil.SeedAccount(t, f.db, sellerID, 0, 50000)

	wr, err := f.withdrawals.RequestWithdrawal(ctx, seller, validWithdrawal(20000))
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, wr.Status)

	account := f.account(t, sellerID)
	assert.Equal(t, int64(30000), account.Withdrawable)
	assert.Equal(t, int64(20000), account.WithdrawalInFlight)

	rejected, err := f.withdrawals.Resolve(ctx, admin, wr.ID, model.DecisionReject, "wrong account")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusRejected, rejected.Status)
	require.NotNil(t, rejected.ResolvedBy)
	assert.Equal(t, adminID, *rejected.ResolvedBy)

	account = f.account(t, sellerID)
	assert.Equal(t, int64(50000), account.Withdrawable)
	assert.Zero(t, account.WithdrawalInFlight)

	wr, err = f.withdrawals.RequestWithdrawal(ctx, seller, validWithdrawal(20000))
	require.NoError(t, err)
	_, err = f.withdrawals.Resolve(ctx, admin, wr.ID, model.DecisionApprove, "")
	require.NoError(t, err)

	account = f.account(t, sellerID)
	assert.Equal(t, int64(30000), account.Withdrawable)
	assert.Zero(t, account.WithdrawalInFlight)
	assert.Equal(t, int64(50000), f.totalMoney(t, sellerID))

	// a resolved request cannot be resolved again
	_, err = f.withdrawals.Resolve(ctx, admin, wr.ID, model.DecisionReject, "")
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.Equal(t, int64(30000), f.account(t, sellerID).Withdrawable)

	list, err := f.withdrawals.List(ctx, seller)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestWithdrawalService_RequestFailures(t *testing.T) {
	tests := []struct {
		name    string
		actor   Actor
		req     *WithdrawalRequest
		wantErr error
	}{
		{name: "more than withdrawable", actor: seller, req: validWithdrawal(60000), wantErr: model.ErrInsufficientFunds},
		{name: "zero amount", actor: seller, req: validWithdrawal(0), wantErr: model.ErrValidation},
		{name: "missing bank details", actor: seller, req: &WithdrawalRequest{Amount: 10, BankName: " "}, wantErr: model.ErrValidation},
		{name: "buyer role", actor: Actor{UserID: sellerID, Role: RoleBuyer}, req: validWithdrawal(100), wantErr: model.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			testutil.SeedAccount(t, f.db, sellerID, 0, 50000)

			_, err := f.withdrawals.RequestWithdrawal(context.Background(), tt.actor, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)

			account := f.account(t, sellerID)
			assert.Equal(t, int64(50000), account.Withdrawable)
			assert.Zero(t, account.WithdrawalInFlight)
		})
	}
}

func TestWithdrawalService_ResolveFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	testutil.SeedAccount(t, f.db, sellerID, 0, 50000)
	wr, err := f.withdrawals.RequestWithdrawal(ctx, seller, validWithdrawal(20000))
	require.NoError(t, err)

	_, err = f.withdrawals.Resolve(ctx, seller, wr.ID, model.DecisionApprove, "")
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = f.withdrawals.Resolve(ctx, admin, wr.ID, "maybe", "")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = f.withdrawals.Resolve(ctx, admin, 404, model.DecisionApprove, "")
	assert.ErrorIs(t, err, model.ErrNotFound)

	assert.Equal(t, int64(20000), f.account(t, sellerID).WithdrawalInFlight)
}

func TestWithdrawalService_MissingInFlightIsInconsistency(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	testutil.SeedAccount(t, f.db, sellerID, 0, 50000)
	wr, err := f.withdrawals.RequestWithdrawal(ctx, seller, validWithdrawal(20000))
	require.NoError(t, err)

	// simulate a corrupted balance row
	require.NoError(t, f.db.Model(&model.Account{}).Where("user_id = ?", sellerID).Update("withdrawal_in_flight", 0).Error)

	_, err = f.withdrawals.Resolve(ctx, admin, wr.ID, model.DecisionApprove, "")
	assert.ErrorIs(t, err, model.ErrBalanceInconsistency)

	var reloaded model.WithdrawalRequest
	require.NoError(t, f.db.First(&reloaded, wr.ID).Error)
	assert.Equal(t, model.RequestStatusPending, reloaded.Status)
}
