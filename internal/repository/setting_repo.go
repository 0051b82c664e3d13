package repository

import (
	"context"
	"errors"

	"marketplace/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get returns nil, nil until the setting row has been saved once.
func (r *SettingRepository) Get(ctx context.Context, tx *gorm.DB) (*model.SiteSetting, error) {
	if tx == nil {
		tx = r.db
	}
	var setting model.SiteSetting
	err := tx.WithContext(ctx).Where("id = ?", model.SiteSettingID).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &setting, nil
}

func (r *SettingRepository) Save(ctx context.Context, setting *model.SiteSetting) error {
	setting.ID = model.SiteSettingID
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(setting).Error
}
