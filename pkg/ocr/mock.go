package ocr

import (
	"context"
	"strings"
	"time"
)

const mockPortalText = `
Subject: Mathematics
Total Classes: 42
Attended: 36
Percentage: 85.7%

Subject: Physics
Total Classes: 38
Attended: 31
Percentage: 81.6%

Subject: Chemistry
Total Classes: 40
Attended: 28
Percentage: 70.0%

Subject: Computer Science
Total Classes: 36
Attended: 34
Percentage: 94.4%
`

// MockExtractor returns a fixed portal reading. It backs local development and tests
// where no vision model is configured.
type MockExtractor struct {
	Delay time.Duration
}

// NewMockExtractor constructs the canned extractor.
func NewMockExtractor(delay time.Duration) *MockExtractor {
	return &MockExtractor{Delay: delay}
}

// Name identifies the provider in metrics.
func (m *MockExtractor) Name() string {
	return "mock"
}

// Extract ignores the image and returns the canned reading.
func (m *MockExtractor) Extract(ctx context.Context, _ Image) (Extraction, error) {
	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Extraction{}, ctx.Err()
		case <-timer.C:
		}
	}

	text := strings.TrimSpace(mockPortalText)
	return Extraction{Text: text, Subjects: ParseText(text)}, nil
}
