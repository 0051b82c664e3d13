package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SiteSettingID is the primary key of the single site_setting row.
const SiteSettingID int64 = 1

// SiteSetting holds the platform fee configuration. Rates are percentages.
type SiteSetting struct {
	ID                 int64           `gorm:"primaryKey" json:"id"`
	NormalFeeRate      decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"normal_fee_rate"`
	FeeThresholdAmount int64           `gorm:"not null" json:"fee_threshold_amount"`
	ThresholdFeeRate   decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"threshold_fee_rate"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SiteSetting) TableName() string {
	return "site_setting"
}
