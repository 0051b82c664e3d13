package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"marketplace/internal/model"
	"marketplace/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ComputePrice derives an auto price:
//
//	raw      = cost * rate
//	subtotal = raw + raw * margin / 100
//
// A zero roundingTarget rounds subtotal to the nearest unit, otherwise subtotal
// is raised to the next multiple of roundingTarget and never lowered. Prices
// that do not fit in an int64 return ErrPriceOverflow.
func ComputePrice(cost, rate, profitMargin decimal.Decimal, roundingTarget int64) (int64, error) {
	raw := cost.Mul(rate)
	subtotal := raw.Add(raw.Mul(profitMargin).Div(hundred))

	var price decimal.Decimal
	if roundingTarget == 0 {
		price = subtotal.Round(0)
	} else {
		target := decimal.NewFromInt(roundingTarget)
		price = subtotal
		if rem := subtotal.Mod(target); !rem.IsZero() {
			price = subtotal.Add(target.Sub(rem))
		}
	}

	if price.GreaterThan(maxPrice) || price.LessThan(minPrice) {
		return 0, fmt.Errorf("%w: %s", ErrPriceOverflow, price.String())
	}
	return price.IntPart(), nil
}

var ErrPriceOverflow = errors.New("computed price out of range")

var (
	maxPrice = decimal.NewFromInt(math.MaxInt64)
	minPrice = decimal.NewFromInt(math.MinInt64)
)

// PricingService keeps auto priced products consistent with the seller's
// currency and cost inputs.
type PricingService struct {
	log         *zap.Logger
	pricingRepo *repository.PricingRepository
	productRepo *repository.ProductRepository
}

func NewPricingService(db *gorm.DB, log *zap.Logger) *PricingService {
	return &PricingService{
		log:         log,
		pricingRepo: repository.NewPricingRepository(db),
		productRepo: repository.NewProductRepository(db),
	}
}

type CurrencyUpdate struct {
	Rate         *decimal.Decimal
	ProfitMargin *decimal.Decimal
}

// CascadeResult reports a recompute. Products whose price update failed are
// counted in Failed; running the recompute again is safe.
type CascadeResult struct {
	Changed   bool    `json:"changed"`
	Scanned   int     `json:"scanned"`
	Updated   int     `json:"updated"`
	Unchanged int     `json:"unchanged"`
	Failed    int     `json:"failed"`
	FailedIDs []int64 `json:"failed_ids,omitempty"`
}

// SetCurrency updates rate and/or margin and, if either changed, reprices every
// auto product whose product info uses this currency.
func (s *PricingService) SetCurrency(ctx context.Context, actor Actor, currencyID int64, upd CurrencyUpdate) (*model.SellerCurrency, *CascadeResult, error) {
	if err := requireUser(actor); err != nil {
		return nil, nil, err
	}
	if upd.Rate == nil && upd.ProfitMargin == nil {
		return nil, nil, validationError("rate or profit_margin is required")
	}
	if upd.Rate != nil && !upd.Rate.IsPositive() {
		return nil, nil, validationError("rate must be positive")
	}
	if upd.ProfitMargin != nil && upd.ProfitMargin.IsNegative() {
		return nil, nil, validationError("profit_margin must not be negative")
	}

	currency, err := s.pricingRepo.GetCurrency(ctx, currencyID)
	if err != nil {
		return nil, nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(currency.SellerID) {
		return nil, nil, fmt.Errorf("%w: not your currency", model.ErrForbidden)
	}

	rate, margin := currency.Rate, currency.ProfitMargin
	if upd.Rate != nil {
		rate = *upd.Rate
	}
	if upd.ProfitMargin != nil {
		margin = *upd.ProfitMargin
	}

	if rate.Equal(currency.Rate) && margin.Equal(currency.ProfitMargin) {
		return currency, &CascadeResult{}, nil
	}

	if err := s.pricingRepo.UpdateCurrency(ctx, currency.ID, rate, margin); err != nil {
		return nil, nil, fmt.Errorf("update currency: %w", err)
	}
	currency.Rate = rate
	currency.ProfitMargin = margin

	result, err := s.RecomputeCurrency(ctx, currency)
	if err != nil {
		return nil, nil, err
	}
	result.Changed = true
	return currency, result, nil
}

// SetCostAmount changes the cost of one product info and reprices its products.
func (s *PricingService) SetCostAmount(ctx context.Context, actor Actor, infoID int64, cost decimal.Decimal) (*model.SellerProductInfo, *CascadeResult, error) {
	if err := requireUser(actor); err != nil {
		return nil, nil, err
	}
	if !cost.IsPositive() {
		return nil, nil, validationError("cost_amount must be positive")
	}

	info, err := s.pricingRepo.GetProductInfo(ctx, infoID)
	if err != nil {
		return nil, nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(info.SellerID) {
		return nil, nil, fmt.Errorf("%w: not your product info", model.ErrForbidden)
	}

	if cost.Equal(info.CostAmount) {
		return info, &CascadeResult{}, nil
	}

	currency, err := s.pricingRepo.GetCurrency(ctx, info.CurrencyID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.pricingRepo.UpdateCostAmount(ctx, info.ID, cost); err != nil {
		return nil, nil, fmt.Errorf("update cost: %w", err)
	}
	info.CostAmount = cost

	result := s.reprice(ctx, currency, []*model.SellerProductInfo{info})
	result.Changed = true
	return info, result, nil
}

// RecomputeCurrency reprices all auto products that depend on currency.
func (s *PricingService) RecomputeCurrency(ctx context.Context, currency *model.SellerCurrency) (*CascadeResult, error) {
	infos, err := s.pricingRepo.ListProductInfoByCurrency(ctx, currency.ID)
	if err != nil {
		return nil, fmt.Errorf("list product info: %w", err)
	}
	return s.reprice(ctx, currency, infos), nil
}

// reprice updates products one by one. A failing product is logged and
// skipped, the others still get their new price.
func (s *PricingService) reprice(ctx context.Context, currency *model.SellerCurrency, infos []*model.SellerProductInfo) *CascadeResult {
	result := &CascadeResult{}

	byID := make(map[int64]*model.SellerProductInfo, len(infos))
	ids := make([]int64, 0, len(infos))
	for _, info := range infos {
		byID[info.ID] = info
		ids = append(ids, info.ID)
	}

	products, err := s.productRepo.ListAutoPricedByInfo(ctx, ids)
	if err != nil {
		s.log.Error("list auto priced products", zap.Int64("currency_id", currency.ID), zap.Error(err))
		result.Failed = len(ids)
		return result
	}

	for _, p := range products {
		result.Scanned++
		info := byID[*p.SellerProductInfoID]

		if !model.IsValidRoundingTarget(p.RoundingTarget) {
			s.log.Warn("invalid rounding target", zap.Int64("product_id", p.ID), zap.Int64("rounding_target", p.RoundingTarget))
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, p.ID)
			continue
		}

		price, err := ComputePrice(info.CostAmount, currency.Rate, currency.ProfitMargin, p.RoundingTarget)
		if err != nil {
			s.log.Warn("compute price", zap.Int64("product_id", p.ID), zap.Error(err))
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, p.ID)
			continue
		}
		if price <= 0 {
			s.log.Warn("computed price is not positive", zap.Int64("product_id", p.ID), zap.Int64("price", price))
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, p.ID)
			continue
		}
		if price == p.Price {
			result.Unchanged++
			continue
		}

		if err := s.productRepo.UpdatePrice(ctx, p.ID, price); err != nil {
			s.log.Error("update product price", zap.Int64("product_id", p.ID), zap.Int64("price", price), zap.Error(err))
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, p.ID)
			continue
		}
		result.Updated++
	}

	s.log.Info("pricing cascade finished",
		zap.Int64("currency_id", currency.ID),
		zap.Int("scanned", result.Scanned),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed))

	return result
}
