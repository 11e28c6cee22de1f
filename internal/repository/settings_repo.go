package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/bunkwise-api/internal/models"
)

// SettingsRepository persists user preferences.
type SettingsRepository interface {
	// Get returns the stored settings or the defaults when none were saved.
	Get(ctx context.Context, userID uint) (models.UserSettings, error)
	Upsert(ctx context.Context, settings *models.UserSettings) error
}

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository constructs a settings repository.
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context, userID uint) (models.UserSettings, error) {
	var settings models.UserSettings
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultUserSettings(userID), nil
	}
	if err != nil {
		return models.UserSettings{}, err
	}
	return settings, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, settings *models.UserSettings) error {
	if settings.ID != 0 {
		return r.db.WithContext(ctx).Save(settings).Error
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"default_target_attendance", "notifications_enabled", "theme", "semester_end_date", "updated_at"}),
	}).Create(settings).Error
}
