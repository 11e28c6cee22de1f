package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/bunkwise-api/internal/attendance"
	"github.com/noah-isme/bunkwise-api/internal/dto"
	"github.com/noah-isme/bunkwise-api/internal/models"
	"github.com/noah-isme/bunkwise-api/internal/repository"
)

var (
	// ErrSubjectNotFound indicates the subject does not exist for the caller.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrInvalidSubjectCounts indicates attended classes would exceed the total.
	ErrInvalidSubjectCounts = errors.New("attended classes cannot exceed total classes")
	// ErrSubjectNameRequired indicates the name was empty after sanitising.
	ErrSubjectNameRequired = errors.New("subject name is required")
)

// SubjectService manages tracked subjects and their projections.
type SubjectService interface {
	List(ctx context.Context, userID uint, includeInactive bool) ([]dto.SubjectResponse, error)
	Get(ctx context.Context, userID, id uint) (dto.SubjectResponse, error)
	Create(ctx context.Context, userID uint, req dto.SubjectCreateRequest) (dto.SubjectResponse, error)
	Update(ctx context.Context, userID, id uint, req dto.SubjectUpdateRequest) (dto.SubjectResponse, error)
	Delete(ctx context.Context, userID, id uint) error
	Focus(ctx context.Context, userID, id uint) (dto.SubjectFocusResponse, error)
}

type subjectService struct {
	subjects  repository.SubjectRepository
	records   repository.AttendanceRecordRepository
	settings  repository.SettingsRepository
	dashboard DashboardService
	watcher   *riskWatcher
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewSubjectService constructs the subject service.
func NewSubjectService(subjects repository.SubjectRepository, records repository.AttendanceRecordRepository, settings repository.SettingsRepository, dashboard DashboardService, notifier RiskNotifier, validate *validator.Validate, logger zerolog.Logger) SubjectService {
	componentLogger := logger.With().Str("component", "subject_service").Logger()
	return &subjectService{
		subjects:  subjects,
		records:   records,
		settings:  settings,
		dashboard: dashboard,
		watcher:   newRiskWatcher(notifier, settings, componentLogger),
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    componentLogger,
		tracer:    otel.Tracer("github.com/noah-isme/bunkwise-api/internal/service/subject"),
	}
}

func (s *subjectService) List(ctx context.Context, userID uint, includeInactive bool) ([]dto.SubjectResponse, error) {
	ctx, span := s.tracer.Start(ctx, "subject.list")
	defer span.End()

	subjects, err := s.subjects.List(ctx, userID, repository.SubjectFilter{IncludeInactive: includeInactive})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return dto.NewSubjectResponseSlice(subjects), nil
}

func (s *subjectService) Get(ctx context.Context, userID, id uint) (dto.SubjectResponse, error) {
	subject, err := s.load(ctx, userID, id)
	if err != nil {
		return dto.SubjectResponse{}, err
	}
	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) Create(ctx context.Context, userID uint, req dto.SubjectCreateRequest) (dto.SubjectResponse, error) {
	ctx, span := s.tracer.Start(ctx, "subject.create")
	defer span.End()

	req.Name = cleanName(s.sanitizer, req.Name)
	if err := s.validator.Struct(req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.SubjectResponse{}, err
	}

	target, err := resolveTarget(ctx, s.settings, userID, req.TargetAttendance)
	if err != nil {
		span.RecordError(err)
		return dto.SubjectResponse{}, err
	}

	subject := models.Subject{
		UserID:           userID,
		Name:             req.Name,
		TargetAttendance: target,
		TotalClasses:     req.TotalClasses,
		AttendedClasses:  req.AttendedClasses,
		IsActive:         true,
	}
	if err := s.subjects.Create(ctx, &subject); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.SubjectResponse{}, err
	}

	span.SetAttributes(attribute.Int("subject.id", int(subject.ID)))
	s.afterChange(ctx, nil, subject)
	s.logger.Info().Uint("user_id", userID).Uint("subject_id", subject.ID).Msg("subject created")

	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) Update(ctx context.Context, userID, id uint, req dto.SubjectUpdateRequest) (dto.SubjectResponse, error) {
	ctx, span := s.tracer.Start(ctx, "subject.update", trace.WithAttributes(attribute.Int("subject.id", int(id))))
	defer span.End()

	if req.Name != nil {
		cleaned := cleanName(s.sanitizer, *req.Name)
		if cleaned == "" {
			return dto.SubjectResponse{}, ErrSubjectNameRequired
		}
		req.Name = &cleaned
	}
	if err := s.validator.Struct(req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.SubjectResponse{}, err
	}

	subject, err := s.load(ctx, userID, id)
	if err != nil {
		return dto.SubjectResponse{}, err
	}
	before := subject

	if req.Name != nil {
		subject.Name = *req.Name
	}
	if req.TotalClasses != nil {
		subject.TotalClasses = *req.TotalClasses
	}
	if req.AttendedClasses != nil {
		subject.AttendedClasses = *req.AttendedClasses
	}
	if req.TargetAttendance != nil {
		subject.TargetAttendance = *req.TargetAttendance
	}
	if req.IsActive != nil {
		subject.IsActive = *req.IsActive
	}
	if subject.AttendedClasses > subject.TotalClasses {
		return dto.SubjectResponse{}, ErrInvalidSubjectCounts
	}

	if err := s.subjects.Update(ctx, &subject); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.SubjectResponse{}, err
	}

	s.afterChange(ctx, &before, subject)
	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) Delete(ctx context.Context, userID, id uint) error {
	ctx, span := s.tracer.Start(ctx, "subject.delete", trace.WithAttributes(attribute.Int("subject.id", int(id))))
	defer span.End()

	if err := s.subjects.Deactivate(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubjectNotFound
		}
		span.RecordError(err)
		return err
	}

	s.invalidate(ctx, userID)
	s.logger.Info().Uint("user_id", userID).Uint("subject_id", id).Msg("subject deactivated")
	return nil
}

func (s *subjectService) Focus(ctx context.Context, userID, id uint) (dto.SubjectFocusResponse, error) {
	ctx, span := s.tracer.Start(ctx, "subject.focus", trace.WithAttributes(attribute.Int("subject.id", int(id))))
	defer span.End()

	subject, err := s.load(ctx, userID, id)
	if err != nil {
		return dto.SubjectFocusResponse{}, err
	}

	records, err := s.records.List(ctx, userID, id, repository.RecordFilter{})
	if err != nil {
		span.RecordError(err)
		return dto.SubjectFocusResponse{}, err
	}

	marks := make([]attendance.Mark, 0, len(records))
	for _, record := range records {
		marks = append(marks, attendance.Mark{Date: record.Date, Present: record.Present()})
	}

	response := dto.NewSubjectResponse(subject)
	return dto.SubjectFocusResponse{
		Subject:         response,
		Recommendations: attendance.Recommend(response.Projection.Result),
		Trend:           attendance.Trend(subject.TotalClasses, subject.AttendedClasses, marks),
	}, nil
}

func (s *subjectService) load(ctx context.Context, userID, id uint) (models.Subject, error) {
	subject, err := s.subjects.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Subject{}, ErrSubjectNotFound
		}
		return models.Subject{}, err
	}
	return subject, nil
}

func (s *subjectService) afterChange(ctx context.Context, before *models.Subject, after models.Subject) {
	s.invalidate(ctx, after.UserID)
	s.watcher.observe(ctx, before, after)
}

func (s *subjectService) invalidate(ctx context.Context, userID uint) {
	if s.dashboard == nil {
		return
	}
	if err := s.dashboard.Invalidate(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to invalidate dashboard cache")
	}
}

func cleanName(policy *bluemonday.Policy, name string) string {
	return strings.Join(strings.Fields(policy.Sanitize(name)), " ")
}

// resolveTarget falls back to the user's default target when none is given.
func resolveTarget(ctx context.Context, settings repository.SettingsRepository, userID uint, requested *float64) (float64, error) {
	if requested != nil {
		return *requested, nil
	}
	if settings == nil {
		return attendance.DefaultTarget, nil
	}
	prefs, err := settings.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return prefs.DefaultTargetAttendance, nil
}
