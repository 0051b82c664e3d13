package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace/internal/model"

	"gorm.io/gorm"
)

var (
	ErrWithdrawalNotFound = fmt.Errorf("%w: withdrawal request", model.ErrNotFound)
	ErrDepositNotFound    = fmt.Errorf("%w: deposit request", model.ErrNotFound)
	ErrRequestResolved    = fmt.Errorf("%w: request already resolved", model.ErrConflict)
)

type WithdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return r.db
	}
	return tx
}

func (r *WithdrawalRepository) Create(ctx context.Context, tx *gorm.DB, req *model.WithdrawalRequest) error {
	return r.conn(tx).WithContext(ctx).Create(req).Error
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*model.WithdrawalRequest, error) {
	var req model.WithdrawalRequest
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}
	return &req, nil
}

// Resolve moves a pending request to status; a request that is no longer
// pending yields ErrRequestResolved.
func (r *WithdrawalRepository) Resolve(ctx context.Context, tx *gorm.DB, id int64, status string, adminID int64, note string, at time.Time) error {
	return resolveRequest(ctx, r.conn(tx), &model.WithdrawalRequest{}, id, status, adminID, note, at)
}

func (r *WithdrawalRepository) ListBySeller(ctx context.Context, sellerID int64) ([]*model.WithdrawalRequest, error) {
	var reqs []*model.WithdrawalRequest
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC, id DESC").
		Find(&reqs).Error
	return reqs, err
}

// SumApproved is the total already paid out to the seller.
func (r *WithdrawalRepository) SumApproved(ctx context.Context, sellerID int64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.WithdrawalRequest{}).
		Where("seller_id = ? AND status = ?", sellerID, model.RequestStatusApproved).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func resolveRequest(ctx context.Context, db *gorm.DB, table interface{}, id int64, status string, adminID int64, note string, at time.Time) error {
	result := db.WithContext(ctx).
		Model(table).
		Where("id = ? AND status = ?", id, model.RequestStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"note":        note,
			"resolved_by": adminID,
			"resolved_at": at,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRequestResolved
	}
	return nil
}
