package models

import (
	"time"

	"github.com/noah-isme/bunkwise-api/internal/attendance"
)

// UserSettings holds per-user preferences.
type UserSettings struct {
	ID                      uint       `gorm:"primaryKey" json:"id"`
	UserID                  uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	DefaultTargetAttendance float64    `gorm:"not null" json:"default_target_attendance"`
	NotificationsEnabled    bool       `gorm:"not null" json:"notifications_enabled"`
	Theme                   string     `gorm:"size:16;not null" json:"theme"`
	SemesterEndDate         *time.Time `json:"semester_end_date"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

// DefaultUserSettings returns the preferences applied before a user saves any.
func DefaultUserSettings(userID uint) UserSettings {
	return UserSettings{
		UserID:                  userID,
		DefaultTargetAttendance: attendance.DefaultTarget,
		NotificationsEnabled:    true,
		Theme:                   "dark",
	}
}
