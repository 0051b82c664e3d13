package service

import (
	"marketplace/internal/config"
	"marketplace/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FeePolicy maps an order price to the platform fee. Rates are percentages.
type FeePolicy struct {
	NormalFeeRate    decimal.Decimal `json:"normal_fee_rate"`
	ThresholdAmount  int64           `json:"fee_threshold_amount"`
	ThresholdFeeRate decimal.Decimal `json:"threshold_fee_rate"`
}

func FeePolicyFromSetting(s *model.SiteSetting) FeePolicy {
	return FeePolicy{
		NormalFeeRate:    s.NormalFeeRate,
		ThresholdAmount:  s.FeeThresholdAmount,
		ThresholdFeeRate: s.ThresholdFeeRate,
	}
}

func FeePolicyFromConfig(c config.FeeConfig) FeePolicy {
	return FeePolicy{
		NormalFeeRate:    c.NormalRate(),
		ThresholdAmount:  c.ThresholdAmount,
		ThresholdFeeRate: c.ThresholdRate(),
	}
}

// Fee is rounded half away from zero to whole currency units and never exceeds price.
func (p FeePolicy) Fee(price int64) int64 {
	rate := p.NormalFeeRate
	if price >= p.ThresholdAmount {
		rate = p.ThresholdFeeRate
	}
	fee := decimal.NewFromInt(price).Mul(rate).Div(hundred).Round(0).IntPart()
	if fee < 0 {
		return 0
	}
	if fee > price {
		return price
	}
	return fee
}

// Split returns the fee and what the seller receives for price.
func (p FeePolicy) Split(price int64) (fee, sellerReceived int64) {
	fee = p.Fee(price)
	return fee, price - fee
}
