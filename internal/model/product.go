package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PricingModeManual = "manual"
	PricingModeAuto   = "auto"
)

// ValidRoundingTargets are the allowed price rounding steps, 0 meaning plain rounding.
var ValidRoundingTargets = []int64{0, 10, 50, 100}

func IsValidRoundingTarget(target int64) bool {
	for _, t := range ValidRoundingTargets {
		if t == target {
			return true
		}
	}
	return false
}

// Product carries only the fields the ledger and the pricing cascade touch.
// The rest of the catalog lives with the catalog service.
type Product struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SellerID            int64     `gorm:"index;not null" json:"seller_id"`
	Name                string    `gorm:"type:varchar(128);not null" json:"name"`
	Price               int64     `gorm:"not null" json:"price"`
	Stock               int64     `gorm:"not null;default:0" json:"stock"`
	TotalSold           int64     `gorm:"not null;default:0" json:"total_sold"`
	Active              bool      `gorm:"not null" json:"active"`
	PricingMode         string    `gorm:"type:varchar(16);not null;default:manual" json:"pricing_mode"`
	SellerProductInfoID *int64    `gorm:"index" json:"seller_product_info_id"`
	RoundingTarget      int64     `gorm:"not null;default:0" json:"rounding_target"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Product) TableName() string {
	return "product"
}

// SellerCurrency is a seller defined exchange rate plus profit margin in percent.
type SellerCurrency struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SellerID     int64           `gorm:"index;not null" json:"seller_id"`
	Name         string          `gorm:"type:varchar(32);not null" json:"name"`
	Rate         decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"rate"`
	ProfitMargin decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"profit_margin"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SellerCurrency) TableName() string {
	return "seller_currency"
}

// SellerProductInfo links a seller's game/category to its cost in a SellerCurrency.
type SellerProductInfo struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SellerID   int64           `gorm:"index;not null" json:"seller_id"`
	GameID     int64           `gorm:"not null" json:"game_id"`
	CategoryID int64           `gorm:"not null" json:"category_id"`
	CostAmount decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"cost_amount"`
	CurrencyID int64           `gorm:"index;not null" json:"currency_id"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SellerProductInfo) TableName() string {
	return "seller_product_info"
}
