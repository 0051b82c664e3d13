package repository

import (
	"context"
	"errors"
	"time"

	"marketplace/internal/model"

	"gorm.io/gorm"
)

type DepositRepository struct {
	db *gorm.DB
}

func NewDepositRepository(db *gorm.DB) *DepositRepository {
	return &DepositRepository{db: db}
}

func (r *DepositRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return r.db
	}
	return tx
}

func (r *DepositRepository) Create(ctx context.Context, req *model.DepositRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *DepositRepository) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*model.DepositRequest, error) {
	var req model.DepositRequest
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepositNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *DepositRepository) Resolve(ctx context.Context, tx *gorm.DB, id int64, status string, adminID int64, note string, at time.Time) error {
	return resolveRequest(ctx, r.conn(tx), &model.DepositRequest{}, id, status, adminID, note, at)
}
