package service

import (
	"context"
	"fmt"

	"marketplace/internal/config"
	"marketplace/internal/model"
	"marketplace/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SettingService struct {
	settingRepo *repository.SettingRepository
	defaults    FeePolicy
}

func NewSettingService(db *gorm.DB, cfg *config.Config) *SettingService {
	return &SettingService{
		settingRepo: repository.NewSettingRepository(db),
		defaults:    FeePolicyFromConfig(cfg.Fee),
	}
}

// FeePolicy returns the policy in force right now, falling back to the
// configured defaults while no setting row exists.
func (s *SettingService) FeePolicy(ctx context.Context, tx *gorm.DB) (FeePolicy, error) {
	setting, err := s.settingRepo.Get(ctx, tx)
	if err != nil {
		return FeePolicy{}, fmt.Errorf("load site setting: %w", err)
	}
	if setting == nil {
		return s.defaults, nil
	}
	return FeePolicyFromSetting(setting), nil
}

type UpdateSettingRequest struct {
	NormalFeeRate      decimal.Decimal
	FeeThresholdAmount int64
	ThresholdFeeRate   decimal.Decimal
}

// Update replaces the fee configuration. Orders already sent keep their frozen fee.
func (s *SettingService) Update(ctx context.Context, actor Actor, req *UpdateSettingRequest) (*model.SiteSetting, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !validRate(req.NormalFeeRate) || !validRate(req.ThresholdFeeRate) {
		return nil, validationError("fee rates must be between 0 and 100")
	}
	if req.FeeThresholdAmount < 0 {
		return nil, validationError("fee threshold must not be negative")
	}

	setting := &model.SiteSetting{
		NormalFeeRate:      req.NormalFeeRate,
		FeeThresholdAmount: req.FeeThresholdAmount,
		ThresholdFeeRate:   req.ThresholdFeeRate,
	}
	if err := s.settingRepo.Save(ctx, setting); err != nil {
		return nil, fmt.Errorf("save site setting: %w", err)
	}
	return setting, nil
}

func (s *SettingService) Current(ctx context.Context) (FeePolicy, error) {
	return s.FeePolicy(ctx, nil)
}

func validRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(hundred)
}

// View is the admin read of the fee policy in force.
func (s *SettingService) View(ctx context.Context, actor Actor) (FeePolicy, error) {
	if err := requireAdmin(actor); err != nil {
		return FeePolicy{}, err
	}
	return s.Current(ctx)
}
