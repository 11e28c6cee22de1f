package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/bunkwise-api/internal/models"
)

// SubjectFilter narrows subject listings.
type SubjectFilter struct {
	IncludeInactive bool
}

// SubjectRepository persists tracked subjects.
type SubjectRepository interface {
	List(ctx context.Context, userID uint, filter SubjectFilter) ([]models.Subject, error)
	GetByID(ctx context.Context, userID, id uint) (models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	CreateBatch(ctx context.Context, subjects []models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Deactivate(ctx context.Context, userID, id uint) error
}

type subjectRepository struct {
	db *gorm.DB
}

// NewSubjectRepository constructs a subject repository.
func NewSubjectRepository(db *gorm.DB) SubjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) List(ctx context.Context, userID uint, filter SubjectFilter) ([]models.Subject, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}

	var subjects []models.Subject
	if err := query.Order("id ASC").Find(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}

func (r *subjectRepository) GetByID(ctx context.Context, userID, id uint) (models.Subject, error) {
	var subject models.Subject
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&subject, id).Error; err != nil {
		return models.Subject{}, err
	}
	return subject, nil
}

func (r *subjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	return r.db.WithContext(ctx).Create(subject).Error
}

func (r *subjectRepository) CreateBatch(ctx context.Context, subjects []models.Subject) error {
	if len(subjects) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&subjects).Error
}

func (r *subjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	return r.db.WithContext(ctx).Save(subject).Error
}

func (r *subjectRepository) Deactivate(ctx context.Context, userID, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.Subject{}).
		Where("id = ? AND user_id = ? AND is_active = ?", id, userID, true).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
