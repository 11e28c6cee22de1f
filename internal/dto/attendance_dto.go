package dto

import (
	"time"

	"github.com/noah-isme/bunkwise-api/internal/attendance"
	"github.com/noah-isme/bunkwise-api/internal/models"
)

// DateLayout is the calendar date format accepted for semester and record dates.
const DateLayout = "2006-01-02"

// CalculateRequest is the single-subject calculator payload. Negative counts and targets
// outside 0-100 are clamped by the projector; only the class counts carry an upper bound.
type CalculateRequest struct {
	TotalClasses     int      `json:"total_classes" validate:"lte=10000"`
	Absences         int      `json:"absences" validate:"lte=10000"`
	TargetPercentage *float64 `json:"target_percentage"`
}

// Input converts the request into projector input, defaulting the target.
func (r CalculateRequest) Input() attendance.Input {
	target := attendance.DefaultTarget
	if r.TargetPercentage != nil {
		target = *r.TargetPercentage
	}
	return attendance.Input{
		TotalClasses:     r.TotalClasses,
		Absences:         r.Absences,
		TargetPercentage: target,
	}
}

// ProjectionResponse is a projection plus its rendered copy.
type ProjectionResponse struct {
	attendance.Result
	Advice string `json:"advice"`
	Theme  string `json:"theme"`
	Label  string `json:"label"`
}

// NewProjectionResponse renders a projection result.
func NewProjectionResponse(result attendance.Result) ProjectionResponse {
	return ProjectionResponse{
		Result: result,
		Advice: result.Advice(),
		Theme:  result.Status.Theme(),
		Label:  result.Status.Label(),
	}
}

// CalculatorSocketError is sent over the live calculator socket for bad frames.
type CalculatorSocketError struct {
	Error string `json:"error"`
}

// SubjectCreateRequest describes a new tracked subject.
type SubjectCreateRequest struct {
	Name             string   `json:"name" validate:"required,min=1,max=120"`
	TotalClasses     int      `json:"total_classes" validate:"gte=0,lte=10000"`
	AttendedClasses  int      `json:"attended_classes" validate:"gte=0,ltefield=TotalClasses"`
	TargetAttendance *float64 `json:"target_attendance" validate:"omitempty,gte=0,lte=100"`
}

// SubjectUpdateRequest carries partial subject changes.
type SubjectUpdateRequest struct {
	Name             *string  `json:"name" validate:"omitempty,min=1,max=120"`
	TotalClasses     *int     `json:"total_classes" validate:"omitempty,gte=0,lte=10000"`
	AttendedClasses  *int     `json:"attended_classes" validate:"omitempty,gte=0"`
	TargetAttendance *float64 `json:"target_attendance" validate:"omitempty,gte=0,lte=100"`
	IsActive         *bool    `json:"is_active"`
}

// SubjectResponse is a subject with its projection.
type SubjectResponse struct {
	ID               uint               `json:"id"`
	Name             string             `json:"name"`
	TargetAttendance float64            `json:"target_attendance"`
	TotalClasses     int                `json:"total_classes"`
	AttendedClasses  int                `json:"attended_classes"`
	IsActive         bool               `json:"is_active"`
	Projection       ProjectionResponse `json:"projection"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// NewSubjectResponse converts a model into a DTO.
func NewSubjectResponse(subject models.Subject) SubjectResponse {
	return SubjectResponse{
		ID:               subject.ID,
		Name:             subject.Name,
		TargetAttendance: subject.TargetAttendance,
		TotalClasses:     subject.TotalClasses,
		AttendedClasses:  subject.AttendedClasses,
		IsActive:         subject.IsActive,
		Projection:       NewProjectionResponse(attendance.Project(subject.AttendanceInput())),
		UpdatedAt:        subject.UpdatedAt,
	}
}

// NewSubjectResponseSlice converts a slice of models into DTOs.
func NewSubjectResponseSlice(subjects []models.Subject) []SubjectResponse {
	out := make([]SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		out = append(out, NewSubjectResponse(subject))
	}
	return out
}

// SubjectFocusResponse backs the focus view of a single subject.
type SubjectFocusResponse struct {
	Subject         SubjectResponse         `json:"subject"`
	Recommendations []string                `json:"recommendations"`
	Trend           []attendance.TrendPoint `json:"trend"`
}

// RecordCreateRequest marks one class for a subject.
type RecordCreateRequest struct {
	Date   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Status string `json:"status" validate:"required,oneof=present absent"`
	Notes  string `json:"notes" validate:"omitempty,max=500"`
}

// RecordListQuery filters the calendar listing.
type RecordListQuery struct {
	From string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `query:"to" validate:"omitempty,datetime=2006-01-02"`
}

// RecordResponse is a stored attendance mark.
type RecordResponse struct {
	ID        uint      `json:"id"`
	SubjectID uint      `json:"subject_id"`
	Date      string    `json:"date"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRecordResponse converts a model into a DTO.
func NewRecordResponse(record models.AttendanceRecord) RecordResponse {
	return RecordResponse{
		ID:        record.ID,
		SubjectID: record.SubjectID,
		Date:      record.Date.Format(DateLayout),
		Status:    record.Status,
		Notes:     record.Notes,
		CreatedAt: record.CreatedAt,
	}
}

// NewRecordResponseSlice converts a slice of models into DTOs.
func NewRecordResponseSlice(records []models.AttendanceRecord) []RecordResponse {
	out := make([]RecordResponse, 0, len(records))
	for _, record := range records {
		out = append(out, NewRecordResponse(record))
	}
	return out
}

// RecordCreateResponse returns the stored mark with the refreshed subject.
type RecordCreateResponse struct {
	Record  RecordResponse  `json:"record"`
	Subject SubjectResponse `json:"subject"`
}

// DashboardSummary is the overall rollup across active subjects.
type DashboardSummary struct {
	TotalClasses      int               `json:"total_classes"`
	AttendedClasses   int               `json:"attended_classes"`
	OverallPercentage float64           `json:"overall_percentage"`
	Status            attendance.Status `json:"status"`
	Theme             string            `json:"theme"`
	SubjectCount      int               `json:"subject_count"`
	SubjectsOnTrack   int               `json:"subjects_on_track"`
	SubjectsAtRisk    int               `json:"subjects_at_risk"`
}

// DashboardResponse backs the multi-subject dashboard.
type DashboardResponse struct {
	Summary  DashboardSummary  `json:"summary"`
	Subjects []SubjectResponse `json:"subjects"`
}

// NewDashboardResponse renders a rollup together with the subjects it covers.
func NewDashboardResponse(rollup attendance.Rollup, subjects []models.Subject) DashboardResponse {
	return DashboardResponse{
		Summary: DashboardSummary{
			TotalClasses:      rollup.TotalClasses,
			AttendedClasses:   rollup.AttendedClasses,
			OverallPercentage: rollup.OverallPercentage,
			Status:            rollup.Status,
			Theme:             rollup.Status.Theme(),
			SubjectCount:      len(rollup.Subjects),
			SubjectsOnTrack:   rollup.SubjectsOnTrack,
			SubjectsAtRisk:    rollup.SubjectsAtRisk,
		},
		Subjects: NewSubjectResponseSlice(subjects),
	}
}

// OnboardingSubject is one row of the onboarding wizard.
type OnboardingSubject struct {
	Name             string   `json:"name" validate:"max=120"`
	TotalClasses     int      `json:"total_classes" validate:"gte=0,lte=10000"`
	AttendedClasses  int      `json:"attended_classes" validate:"gte=0,ltefield=TotalClasses"`
	TargetAttendance *float64 `json:"target_attendance" validate:"omitempty,gte=0,lte=100"`
}

// OnboardingRequest is submitted once when the wizard completes.
type OnboardingRequest struct {
	SemesterEndDate string              `json:"semester_end_date" validate:"omitempty,datetime=2006-01-02"`
	Subjects        []OnboardingSubject `json:"subjects" validate:"required,min=1,max=30,dive"`
}

// ExtractedSubjectResponse is one subject read from a screenshot.
type ExtractedSubjectResponse struct {
	Name            string             `json:"name"`
	TotalClasses    int                `json:"total_classes"`
	AttendedClasses int                `json:"attended_classes"`
	Percentage      float64            `json:"percentage"`
	Projection      ProjectionResponse `json:"projection"`
}

// ScreenshotResponse describes a processed screenshot.
type ScreenshotResponse struct {
	ID            uint                       `json:"id"`
	ReferenceID   string                     `json:"reference_id"`
	Filename      string                     `json:"filename"`
	ImageURL      string                     `json:"image_url,omitempty"`
	Status        string                     `json:"status"`
	ExtractedText string                     `json:"extracted_text,omitempty"`
	Subjects      []ExtractedSubjectResponse `json:"subjects"`
	FailureReason string                     `json:"failure_reason,omitempty"`
	ImportedAt    *time.Time                 `json:"imported_at,omitempty"`
	CreatedAt     time.Time                  `json:"created_at"`
}

// SettingsUpdateRequest carries partial preference changes.
type SettingsUpdateRequest struct {
	DefaultTargetAttendance *float64 `json:"default_target_attendance" validate:"omitempty,gte=0,lte=100"`
	NotificationsEnabled    *bool    `json:"notifications_enabled"`
	Theme                   *string  `json:"theme" validate:"omitempty,oneof=dark light system"`
	SemesterEndDate         *string  `json:"semester_end_date" validate:"omitempty,datetime=2006-01-02"`
}

// SettingsResponse is the stored preference set.
type SettingsResponse struct {
	DefaultTargetAttendance float64 `json:"default_target_attendance"`
	NotificationsEnabled    bool    `json:"notifications_enabled"`
	Theme                   string  `json:"theme"`
	SemesterEndDate         string  `json:"semester_end_date,omitempty"`
}

// NewSettingsResponse converts a model into a DTO.
func NewSettingsResponse(settings models.UserSettings) SettingsResponse {
	response := SettingsResponse{
		DefaultTargetAttendance: settings.DefaultTargetAttendance,
		NotificationsEnabled:    settings.NotificationsEnabled,
		Theme:                   settings.Theme,
	}
	if settings.SemesterEndDate != nil {
		response.SemesterEndDate = settings.SemesterEndDate.Format(DateLayout)
	}
	return response
}
