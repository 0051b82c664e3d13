package repository

import (
	"context"
	"testing"

	"marketplace/internal/model"
	"marketplace/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_Move(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		from      model.Bucket
		to        model.Bucket
		amount    int64
		wantErr   error
		spendable int64
		withdraw  int64
	}{
		{name: "debit covered", from: model.BucketSpendable, amount: 400, spendable: 600, withdraw: 0},
		{name: "debit exact balance", from: model.BucketSpendable, amount: 1000, spendable: 0, withdraw: 0},
		{name: "debit exceeds balance", from: model.BucketSpendable, amount: 1001, wantErr: model.ErrInsufficientFunds, spendable: 1000},
		{name: "credit", to: model.BucketWithdrawable, amount: 50, spendable: 1000, withdraw: 50},
		{name: "bucket to bucket", from: model.BucketSpendable, to: model.BucketWithdrawable, amount: 300, spendable: 700, withdraw: 300},
		{name: "zero amount", from: model.BucketSpendable, amount: 0, wantErr: model.ErrValidation, spendable: 1000},
		{name: "same bucket", from: model.BucketSpendable, to: model.BucketSpendable, amount: 1, wantErr: model.ErrValidation, spendable: 1000},
		{name: "unknown bucket", from: model.Bucket("version"), amount: 1, wantErr: model.ErrValidation, spendable: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.NewDB(t)
			repo := NewAccountRepository(db)
			testutil.SeedAccount(t, db, 1, 1000, 0)

			_, err := repo.Move(ctx, nil, 1, tt.from, tt.to, tt.amount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			account := testutil.Account(t, db, 1)
			assert.Equal(t, tt.spendable, account.Spendable)
			assert.Equal(t, tt.withdraw, account.Withdrawable)
		})
	}
}

func TestAccountRepository_MoveMissingAccount(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAccountRepository(db)

	_, err := repo.Debit(context.Background(), nil, 42, model.BucketSpendable, 1)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAccountRepository_CreditCreatesAccount(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewAccountRepository(db)

	account, err := repo.Credit(ctx, nil, 7, model.BucketPendingEscrow, 3980)
	require.NoError(t, err)
	assert.Equal(t, int64(3980), account.PendingEscrow)

	account, err = repo.Credit(ctx, nil, 7, model.BucketPendingEscrow, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), account.PendingEscrow)
	assert.Equal(t, 2, account.Version)
}

func TestAccountRepository_GetOrCreate(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewAccountRepository(db)

	first, err := repo.GetOrCreate(ctx, 9)
	require.NoError(t, err)
	second, err := repo.GetOrCreate(ctx, 9)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Zero(t, second.Spendable)
}
