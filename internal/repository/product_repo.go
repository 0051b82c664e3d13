package repository

import (
	"context"
	"errors"
	"fmt"

	"marketplace/internal/model"

	"gorm.io/gorm"
)

var (
	ErrProductNotFound   = fmt.Errorf("%w: product", model.ErrNotFound)
	ErrProductOutOfStock = fmt.Errorf("%w: product", model.ErrOutOfStock)
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return r.db
	}
	return tx
}

func (r *ProductRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *ProductRepository) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*model.Product, error) {
	var product model.Product
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// DecrementStock takes one unit only while the product is active and stock is left.
func (r *ProductRepository) DecrementStock(ctx context.Context, tx *gorm.DB, id int64) error {
	result := r.conn(tx).WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND active = ? AND stock > 0", id, true).
		UpdateColumn("stock", gorm.Expr("stock - 1"))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductOutOfStock
	}
	return nil
}

func (r *ProductRepository) RestoreStock(ctx context.Context, tx *gorm.DB, id int64) error {
	return r.bump(ctx, tx, id, "stock")
}

func (r *ProductRepository) IncrementSold(ctx context.Context, tx *gorm.DB, id int64) error {
	return r.bump(ctx, tx, id, "total_sold")
}

func (r *ProductRepository) bump(ctx context.Context, tx *gorm.DB, id int64, column string) error {
	result := r.conn(tx).WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1"))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// ListAutoPricedByInfo returns auto priced products linked to any of infoIDs.
func (r *ProductRepository) ListAutoPricedByInfo(ctx context.Context, infoIDs []int64) ([]*model.Product, error) {
	var products []*model.Product
	if len(infoIDs) == 0 {
		return products, nil
	}
	err := r.db.WithContext(ctx).
		Where("pricing_mode = ? AND seller_product_info_id IN ?", model.PricingModeAuto, infoIDs).
		Order("id ASC").
		Find(&products).Error
	return products, err
}

func (r *ProductRepository) UpdatePrice(ctx context.Context, id int64, price int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Update("price", price)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// MySQL reports 0 rows when the price is unchanged, so confirm the row exists.
		if _, err := r.GetByID(ctx, nil, id); err != nil {
			return err
		}
	}
	return nil
}
