package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/bunkwise-api/internal/models"
)

// ScreenshotRepository persists processed screenshot metadata.
type ScreenshotRepository interface {
	Create(ctx context.Context, screenshot *models.ProcessedScreenshot) error
	GetByID(ctx context.Context, userID, id uint) (models.ProcessedScreenshot, error)
	Update(ctx context.Context, screenshot *models.ProcessedScreenshot) error
}

type screenshotRepository struct {
	db *gorm.DB
}

// NewScreenshotRepository constructs a repository for processed screenshots.
func NewScreenshotRepository(db *gorm.DB) ScreenshotRepository {
	return &screenshotRepository{db: db}
}

func (r *screenshotRepository) Create(ctx context.Context, screenshot *models.ProcessedScreenshot) error {
	return r.db.WithContext(ctx).Create(screenshot).Error
}

func (r *screenshotRepository) GetByID(ctx context.Context, userID, id uint) (models.ProcessedScreenshot, error) {
	var screenshot models.ProcessedScreenshot
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&screenshot, id).Error; err != nil {
		return models.ProcessedScreenshot{}, err
	}
	return screenshot, nil
}

func (r *screenshotRepository) Update(ctx context.Context, screenshot *models.ProcessedScreenshot) error {
	return r.db.WithContext(ctx).Save(screenshot).Error
}
