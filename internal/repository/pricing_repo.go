package repository

import (
	"context"
	"errors"
	"fmt"

	"marketplace/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrCurrencyNotFound    = fmt.Errorf("%w: seller currency", model.ErrNotFound)
	ErrProductInfoNotFound = fmt.Errorf("%w: seller product info", model.ErrNotFound)
)

// PricingRepository stores the seller inputs auto prices are derived from.
type PricingRepository struct {
	db *gorm.DB
}

func NewPricingRepository(db *gorm.DB) *PricingRepository {
	return &PricingRepository{db: db}
}

func (r *PricingRepository) CreateCurrency(ctx context.Context, currency *model.SellerCurrency) error {
	return r.db.WithContext(ctx).Create(currency).Error
}

func (r *PricingRepository) CreateProductInfo(ctx context.Context, info *model.SellerProductInfo) error {
	return r.db.WithContext(ctx).Create(info).Error
}

func (r *PricingRepository) GetCurrency(ctx context.Context, id int64) (*model.SellerCurrency, error) {
	var currency model.SellerCurrency
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&currency).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCurrencyNotFound
		}
		return nil, err
	}
	return &currency, nil
}

func (r *PricingRepository) GetProductInfo(ctx context.Context, id int64) (*model.SellerProductInfo, error) {
	var info model.SellerProductInfo
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&info).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductInfoNotFound
		}
		return nil, err
	}
	return &info, nil
}

func (r *PricingRepository) UpdateCurrency(ctx context.Context, id int64, rate, profitMargin decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&model.SellerCurrency{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"rate":          rate,
			"profit_margin": profitMargin,
		}).Error
}

func (r *PricingRepository) UpdateCostAmount(ctx context.Context, id int64, cost decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&model.SellerProductInfo{}).
		Where("id = ?", id).
		Update("cost_amount", cost).Error
}

func (r *PricingRepository) ListProductInfoByCurrency(ctx context.Context, currencyID int64) ([]*model.SellerProductInfo, error) {
	var infos []*model.SellerProductInfo
	err := r.db.WithContext(ctx).
		Where("currency_id = ?", currencyID).
		Order("id ASC").
		Find(&infos).Error
	return infos, err
}
