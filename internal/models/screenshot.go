package models

import (
	"time"

	"gorm.io/datatypes"
)

// Screenshot processing states.
const (
	ScreenshotStatusPending    = "pending"
	ScreenshotStatusProcessing = "processing"
	ScreenshotStatusCompleted  = "completed"
	ScreenshotStatusFailed     = "failed"
)

// ProcessedScreenshot stores an uploaded attendance portal screenshot and what was
// extracted from it.
type ProcessedScreenshot struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	ReferenceID      string         `gorm:"size:64;uniqueIndex" json:"reference_id"`
	UserID           uint           `gorm:"index;not null" json:"user_id"`
	Filename         string         `gorm:"size:255;not null" json:"filename"`
	ImageURL         string         `gorm:"size:512" json:"image_url"`
	ExtractedText    string         `gorm:"type:text" json:"extracted_text"`
	ExtractedData    datatypes.JSON `gorm:"type:json" json:"extracted_data"`
	ProcessingStatus string         `gorm:"size:16;not null;index" json:"processing_status"`
	FailureReason    string         `gorm:"size:255" json:"failure_reason"`
	ImportedAt       *time.Time     `json:"imported_at"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}
