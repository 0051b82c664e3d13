package repository

import (
	"context"
	"errors"
	"fmt"

	"marketplace/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAccountNotFound  = fmt.Errorf("%w: account", model.ErrNotFound)
	ErrBalanceNotEnough = fmt.Errorf("%w: balance not enough", model.ErrInsufficientFunds)
	ErrInvalidMovement  = fmt.Errorf("%w: invalid balance movement", model.ErrValidation)
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return r.db
	}
	return tx
}

func (r *AccountRepository) GetByUserID(ctx context.Context, tx *gorm.DB, userID int64) (*model.Account, error) {
	var account model.Account
	err := r.conn(tx).WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// Ensure creates an empty account for userID unless one exists.
func (r *AccountRepository) Ensure(ctx context.Context, tx *gorm.DB, userID int64) error {
	return r.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&model.Account{UserID: userID}).Error
}

func (r *AccountRepository) GetOrCreate(ctx context.Context, userID int64) (*model.Account, error) {
	if err := r.Ensure(ctx, nil, userID); err != nil {
		return nil, err
	}
	return r.GetByUserID(ctx, nil, userID)
}

// Move shifts amount from one bucket to another in a single conditional UPDATE.
// An empty from credits money entering the platform, an empty to debits money
// leaving it. The source bucket is decremented only while it holds at least
// amount, otherwise nothing is written and ErrBalanceNotEnough is returned.
// The returned account is the state after the update as seen by tx.
func (r *AccountRepository) Move(ctx context.Context, tx *gorm.DB, userID int64, from, to model.Bucket, amount int64) (*model.Account, error) {
	if amount <= 0 || from == to || (from != "" && !from.Valid()) || (to != "" && !to.Valid()) {
		return nil, ErrInvalidMovement
	}

	updates := map[string]interface{}{
		"version": gorm.Expr("version + 1"),
	}
	query := r.conn(tx).WithContext(ctx).
		Model(&model.Account{}).
		Where("user_id = ?", userID)

	if from != "" {
		updates[string(from)] = gorm.Expr(string(from)+" - ?", amount)
		query = query.Where(string(from)+" >= ?", amount)
	}
	if to != "" {
		updates[string(to)] = gorm.Expr(string(to)+" + ?", amount)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		if _, err := r.GetByUserID(ctx, tx, userID); err != nil {
			return nil, err
		}
		return nil, ErrBalanceNotEnough
	}

	return r.GetByUserID(ctx, tx, userID)
}

// Credit adds amount to bucket, creating the account on first use.
func (r *AccountRepository) Credit(ctx context.Context, tx *gorm.DB, userID int64, bucket model.Bucket, amount int64) (*model.Account, error) {
	if err := r.Ensure(ctx, tx, userID); err != nil {
		return nil, err
	}
	return r.Move(ctx, tx, userID, "", bucket, amount)
}

// Debit removes amount from bucket only while the bucket covers it.
func (r *AccountRepository) Debit(ctx context.Context, tx *gorm.DB, userID int64, bucket model.Bucket, amount int64) (*model.Account, error) {
	return r.Move(ctx, tx, userID, bucket, "", amount)
}
