package ocr

import (
	"context"
	"errors"
)

// ErrNoSubjects is returned when an image yields no attendance rows.
var ErrNoSubjects = errors.New("no attendance rows found in image")

// Image is a normalised screenshot ready for extraction.
type Image struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Subject is one attendance row read from a portal screenshot.
type Subject struct {
	Name            string  `json:"name"`
	TotalClasses    int     `json:"total_classes"`
	AttendedClasses int     `json:"attended_classes"`
	Percentage      float64 `json:"percentage"`
}

// Extraction is the structured result of reading a screenshot.
type Extraction struct {
	Text     string    `json:"extracted_text"`
	Subjects []Subject `json:"subjects"`
}

// Extractor reads attendance rows out of a screenshot.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, image Image) (Extraction, error)
}
