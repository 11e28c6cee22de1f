package models

import "time"

// Attendance record statuses.
const (
	RecordStatusPresent = "present"
	RecordStatusAbsent  = "absent"
)

// AttendanceRecord is a single class marked present or absent.
type AttendanceRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SubjectID uint      `gorm:"index;not null" json:"subject_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Date      time.Time `gorm:"index;not null" json:"date"`
	Status    string    `gorm:"size:16;not null" json:"status"`
	Notes     string    `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// Present reports whether the class was attended.
func (r AttendanceRecord) Present() bool {
	return r.Status == RecordStatusPresent
}
