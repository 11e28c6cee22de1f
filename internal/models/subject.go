package models

import (
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/bunkwise-api/internal/attendance"
)

// Subject is a course tracked by a user.
type Subject struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"index;not null" json:"user_id"`
	Name             string    `gorm:"size:255;not null" json:"name"`
	TargetAttendance float64   `gorm:"not null" json:"target_attendance"`
	TotalClasses     int       `gorm:"not null" json:"total_classes"`
	AttendedClasses  int       `gorm:"not null" json:"attended_classes"`
	IsActive         bool      `gorm:"index;not null" json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// BeforeSave keeps the stored counters within range.
func (s *Subject) BeforeSave(tx *gorm.DB) error {
	s.Name = strings.TrimSpace(s.Name)
	if s.TotalClasses < 0 {
		s.TotalClasses = 0
	}
	if s.AttendedClasses < 0 {
		s.AttendedClasses = 0
	}
	if s.AttendedClasses > s.TotalClasses {
		s.AttendedClasses = s.TotalClasses
	}
	switch {
	case math.IsNaN(s.TargetAttendance):
		s.TargetAttendance = attendance.DefaultTarget
	case s.TargetAttendance < 0:
		s.TargetAttendance = 0
	case s.TargetAttendance > 100:
		s.TargetAttendance = 100
	}
	return nil
}

// AttendanceInput converts the stored counters into a projection input.
func (s Subject) AttendanceInput() attendance.Input {
	return attendance.FromAttended(s.TotalClasses, s.AttendedClasses, s.TargetAttendance)
}

// AttendanceSubject converts the record into the aggregation shape.
func (s Subject) AttendanceSubject() attendance.Subject {
	return attendance.Subject{
		ID:     s.ID,
		Name:   s.Name,
		Input:  s.AttendanceInput(),
		Active: s.IsActive,
	}
}
