package service

import (
	"context"
	"testing"

	"marketplace/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePrice(t *testing.T) {
	d := decimal.RequireFromString

	tests := []struct {
		name   string
		cost   string
		rate   string
		margin string
		target  int64
		want    int64
		wantErr error
	}{
		{name: "exact", cost: "10", rate: "1500", margin: "10", target: 0, want: 16500},
		{name: "already a multiple", cost: "10", rate: "1500", margin: "10", target: 100, want: 16500},
		{name: "nearest unit rounds half up", cost: "10.5", rate: "1", margin: "0", target: 0, want: 11},
		{name: "nearest unit rounds down", cost: "10.33", rate: "1", margin: "0", target: 0, want: 10},
		{name: "fraction raised to ten", cost: "1234.5", rate: "1", margin: "0", target: 10, want: 1240},
		{name: "raised to fifty", cost: "1231", rate: "1", margin: "0", target: 50, want: 1250},
		{name: "raised to hundred", cost: "1201", rate: "1", margin: "0", target: 100, want: 1300},
		{name: "margin applied before rounding", cost: "2.5", rate: "1000", margin: "10", target: 100, want: 2800},
		{name: "zero cost", cost: "0", rate: "1000", margin: "10", target: 50, want: 0},
		{name: "largest int64", cost: "9223372036854775807", rate: "1", margin: "0", target: 0, want: 9223372036854775807},
		{name: "overflow", cost: "10000000000", rate: "10000000000", margin: "0", target: 0, wantErr: ErrPriceOverflow},
		{name: "overflow after rounding up", cost: "9223372036854775807", rate: "1", margin: "0", target: 10, wantErr: ErrPriceOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputePrice(d(tt.cost), d(tt.rate), d(tt.margin), tt.target)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type pricingFixture struct {
	currency *model.SellerCurrency
	info     *model.SellerProductInfo
	rounded  *model.Product
	plain    *model.Product
	manual   *model.Product
	broken   *model.Product
}

func seedPricing(t *testing.T, f *fixture) *pricingFixture {
	t.Helper()

	p := &pricingFixture{
		currency: &model.SellerCurrency{SellerID: sellerID, Name: "IDR", Rate: decimal.NewFromInt(1000), ProfitMargin: decimal.NewFromInt(10)},
	}
	require.NoError(t, f.db.Create(p.currency).Error)

	p.info = &model.SellerProductInfo{SellerID: sellerID, GameID: 1, CategoryID: 1, CostAmount: decimal.RequireFromString("2.5"), CurrencyID: p.currency.ID}
	require.NoError(t, f.db.Create(p.info).Error)

	product := func(mode string, target, price int64) *model.Product {
		pr := &model.Product{
			SellerID:            sellerID,
			Name:                "diamonds",
			Price:               price,
			Stock:               10,
			Active:              true,
			PricingMode:         mode,
			SellerProductInfoID: &p.info.ID,
			RoundingTarget:      target,
		}
		require.NoError(t, f.db.Create(pr).Error)
		return pr
	}
	p.rounded = product(model.PricingModeAuto, 100, 2800)
	p.plain = product(model.PricingModeAuto, 0, 2750)
	p.manual = product(model.PricingModeManual, 0, 1234)
	p.broken = product(model.PricingModeAuto, 7, 999)
	return p
}

func TestPricingService_SetCurrencyCascade(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := seedPricing(t, f)

	rate := decimal.NewFromInt(1200)
	currency, result, err := f.pricing.SetCurrency(ctx, seller, p.currency.ID, CurrencyUpdate{Rate: &rate})
	require.NoError(t, err)
	assert.True(t, currency.Rate.Equal(rate))
	assert.True(t, currency.ProfitMargin.Equal(decimal.NewFromInt(10)))

	assert.True(t, result.Changed)
	assert.Equal(t, 3, result.Scanned)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []int64{p.broken.ID}, result.FailedIDs)

	assert.Equal(t, int64(3300), f.product(t, p.rounded.ID).Price)
	assert.Equal(t, int64(3300), f.product(t, p.plain.ID).Price)
	assert.Equal(t, int64(1234), f.product(t, p.manual.ID).Price)
	assert.Equal(t, int64(999), f.product(t, p.broken.ID).Price)

	// same values again: nothing to cascade
	_, result, err = f.pricing.SetCurrency(ctx, seller, p.currency.ID, CurrencyUpdate{Rate: &rate})
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Zero(t, result.Scanned)

	// an explicit recompute converges without writes
	result, err = f.pricing.RecomputeCurrency(ctx, currency)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Unchanged)
	assert.Zero(t, result.Updated)
}

func TestPricingService_SetCostAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := seedPricing(t, f)

	info, result, err := f.pricing.SetCostAmount(ctx, seller, p.info.ID, decimal.NewFromInt(3))
	require.NoError(t, err)
	assert.True(t, info.CostAmount.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, int64(3300), f.product(t, p.rounded.ID).Price)
	assert.Equal(t, int64(3300), f.product(t, p.plain.ID).Price)
}

func TestPricingService_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := seedPricing(t, f)

	zero := decimal.Zero
	negative := decimal.NewFromInt(-5)
	rate := decimal.NewFromInt(900)

	tests := []struct {
		name    string
		actor   Actor
		upd     CurrencyUpdate
		wantErr error
	}{
		{name: "nothing to update", actor: seller, upd: CurrencyUpdate{}, wantErr: model.ErrValidation},
		{name: "zero rate", actor: seller, upd: CurrencyUpdate{Rate: &zero}, wantErr: model.ErrValidation},
		{name: "negative margin", actor: seller, upd: CurrencyUpdate{ProfitMargin: &negative}, wantErr: model.ErrValidation},
		{name: "other seller", actor: Actor{UserID: 77, Role: RoleSeller}, upd: CurrencyUpdate{Rate: &rate}, wantErr: model.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.pricing.SetCurrency(ctx, tt.actor, p.currency.ID, tt.upd)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, _, err := f.pricing.SetCurrency(ctx, seller, 404, CurrencyUpdate{Rate: &rate})
	assert.ErrorIs(t, err, model.ErrNotFound)

	for _, cost := range []decimal.Decimal{negative, zero, {}} {
		_, _, err = f.pricing.SetCostAmount(ctx, seller, p.info.ID, cost)
		assert.ErrorIs(t, err, model.ErrValidation)
	}

	assert.Equal(t, int64(2800), f.product(t, p.rounded.ID).Price)
	assert.Equal(t, int64(2750), f.product(t, p.plain.ID).Price)
}

func TestPricingService_SetCostAmountKeepsPricesInRange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := seedPricing(t, f)

	// 0.0001 * 1000 * 1.1 rounds to 0 for the nearest unit product
	_, result, err := f.pricing.SetCostAmount(ctx, seller, p.info.ID, decimal.RequireFromString("0.0001"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 2, result.Failed)
	assert.ElementsMatch(t, []int64{p.plain.ID, p.broken.ID}, result.FailedIDs)
	assert.Equal(t, int64(100), f.product(t, p.rounded.ID).Price)
	assert.Equal(t, int64(2750), f.product(t, p.plain.ID).Price)

	rate := decimal.RequireFromString("10000000000")
	_, _, err = f.pricing.SetCurrency(ctx, seller, p.currency.ID, CurrencyUpdate{Rate: &rate})
	require.NoError(t, err)

	_, result, err = f.pricing.SetCostAmount(ctx, seller, p.info.ID, decimal.RequireFromString("10000000000"))
	require.NoError(t, err)
	assert.Zero(t, result.Updated)
	assert.Equal(t, 3, result.Failed)
	assert.True(t, f.product(t, p.rounded.ID).Price > 0)
	assert.True(t, f.product(t, p.plain.ID).Price > 0)
}
