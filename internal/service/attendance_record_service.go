package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/bunkwise-api/internal/dto"
	"github.com/noah-isme/bunkwise-api/internal/models"
	"github.com/noah-isme/bunkwise-api/internal/repository"
)

var (
	// ErrInvalidRecordStatus indicates the mark was neither present nor absent.
	ErrInvalidRecordStatus = errors.New("status must be present or absent")
	// ErrInvalidDateRange indicates the calendar window is inverted.
	ErrInvalidDateRange = errors.New("from date must not be after to date")
)

// AttendanceRecordService records per-class marks and lists the calendar.
type AttendanceRecordService interface {
	Record(ctx context.Context, userID, subjectID uint, req dto.RecordCreateRequest) (dto.RecordCreateResponse, error)
	List(ctx context.Context, userID, subjectID uint, query dto.RecordListQuery) ([]dto.RecordResponse, error)
}

type attendanceRecordService struct {
	records   repository.AttendanceRecordRepository
	subjects  repository.SubjectRepository
	dashboard DashboardService
	watcher   *riskWatcher
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewAttendanceRecordService constructs the record service.
func NewAttendanceRecordService(records repository.AttendanceRecordRepository, subjects repository.SubjectRepository, settings repository.SettingsRepository, dashboard DashboardService, notifier RiskNotifier, validate *validator.Validate, logger zerolog.Logger) AttendanceRecordService {
	componentLogger := logger.With().Str("component", "attendance_record_service").Logger()
	return &attendanceRecordService{
		records:   records,
		subjects:  subjects,
		dashboard: dashboard,
		watcher:   newRiskWatcher(notifier, settings, componentLogger),
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    componentLogger,
		tracer:    otel.Tracer("github.com/noah-isme/bunkwise-api/internal/service/attendance_record"),
		now:       time.Now,
	}
}

func (s *attendanceRecordService) Record(ctx context.Context, userID, subjectID uint, req dto.RecordCreateRequest) (dto.RecordCreateResponse, error) {
	ctx, span := s.tracer.Start(ctx, "attendance_record.create", trace.WithAttributes(attribute.Int("subject.id", int(subjectID))))
	defer span.End()

	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if req.Status != models.RecordStatusPresent && req.Status != models.RecordStatusAbsent {
		span.SetStatus(codes.Error, "invalid status")
		return dto.RecordCreateResponse{}, ErrInvalidRecordStatus
	}
	req.Notes = strings.TrimSpace(s.sanitizer.Sanitize(req.Notes))
	if err := s.validator.Struct(req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.RecordCreateResponse{}, err
	}

	date := truncateDay(s.now())
	if req.Date != "" {
		parsed, err := time.Parse(dto.DateLayout, req.Date)
		if err != nil {
			return dto.RecordCreateResponse{}, fmt.Errorf("invalid date: %w", err)
		}
		date = parsed
	}

	before, err := s.subjects.GetByID(ctx, userID, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RecordCreateResponse{}, ErrSubjectNotFound
		}
		span.RecordError(err)
		return dto.RecordCreateResponse{}, err
	}

	record := models.AttendanceRecord{
		SubjectID: subjectID,
		UserID:    userID,
		Date:      date,
		Status:    req.Status,
		Notes:     req.Notes,
	}
	after, err := s.records.Record(ctx, &record)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RecordCreateResponse{}, ErrSubjectNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.RecordCreateResponse{}, err
	}

	if s.dashboard != nil {
		if err := s.dashboard.Invalidate(ctx, userID); err != nil {
			s.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to invalidate dashboard cache")
		}
	}
	s.watcher.observe(ctx, &before, after)

	return dto.RecordCreateResponse{
		Record:  dto.NewRecordResponse(record),
		Subject: dto.NewSubjectResponse(after),
	}, nil
}

func (s *attendanceRecordService) List(ctx context.Context, userID, subjectID uint, query dto.RecordListQuery) ([]dto.RecordResponse, error) {
	ctx, span := s.tracer.Start(ctx, "attendance_record.list", trace.WithAttributes(attribute.Int("subject.id", int(subjectID))))
	defer span.End()

	if err := s.validator.Struct(query); err != nil {
		return nil, err
	}

	filter := repository.RecordFilter{}
	if query.From != "" {
		from, err := time.Parse(dto.DateLayout, query.From)
		if err != nil {
			return nil, fmt.Errorf("invalid from date: %w", err)
		}
		filter.From = &from
	}
	if query.To != "" {
		to, err := time.Parse(dto.DateLayout, query.To)
		if err != nil {
			return nil, fmt.Errorf("invalid to date: %w", err)
		}
		end := to.Add(24*time.Hour - time.Nanosecond)
		filter.To = &end
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, ErrInvalidDateRange
	}

	if _, err := s.subjects.GetByID(ctx, userID, subjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}

	records, err := s.records.List(ctx, userID, subjectID, filter)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return dto.NewRecordResponseSlice(records), nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
