package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/bunkwise-api/internal/models"
)

// RecordFilter limits record listings to a date window.
type RecordFilter struct {
	From *time.Time
	To   *time.Time
}

// AttendanceRecordRepository persists per-class attendance marks.
type AttendanceRecordRepository interface {
	// Record stores the mark and bumps the subject counters in one transaction,
	// returning the updated subject.
	Record(ctx context.Context, record *models.AttendanceRecord) (models.Subject, error)
	List(ctx context.Context, userID, subjectID uint, filter RecordFilter) ([]models.AttendanceRecord, error)
}

type attendanceRecordRepository struct {
	db *gorm.DB
}

// NewAttendanceRecordRepository constructs an attendance record repository.
func NewAttendanceRecordRepository(db *gorm.DB) AttendanceRecordRepository {
	return &attendanceRecordRepository{db: db}
}

func (r *attendanceRecordRepository) Record(ctx context.Context, record *models.AttendanceRecord) (models.Subject, error) {
	var subject models.Subject
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND is_active = ?", record.UserID, true).
			First(&subject, record.SubjectID).Error; err != nil {
			return err
		}

		if err := tx.Create(record).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"total_classes": gorm.Expr("total_classes + ?", 1),
		}
		if record.Present() {
			updates["attended_classes"] = gorm.Expr("attended_classes + ?", 1)
		}
		if err := tx.Model(&models.Subject{}).Where("id = ?", subject.ID).Updates(updates).Error; err != nil {
			return err
		}

		return tx.First(&subject, subject.ID).Error
	})
	if err != nil {
		return models.Subject{}, err
	}
	return subject, nil
}

func (r *attendanceRecordRepository) List(ctx context.Context, userID, subjectID uint, filter RecordFilter) ([]models.AttendanceRecord, error) {
	query := r.db.WithContext(ctx).Where("user_id = ? AND subject_id = ?", userID, subjectID)
	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date <= ?", *filter.To)
	}

	var records []models.AttendanceRecord
	if err := query.Order("date ASC, id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
