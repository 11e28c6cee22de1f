package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/bunkwise-api/internal/dto"
	"github.com/noah-isme/bunkwise-api/internal/models"
	"github.com/noah-isme/bunkwise-api/internal/repository"
)

// ErrOnboardingEmpty indicates every submitted subject row was blank.
var ErrOnboardingEmpty = errors.New("at least one named subject is required")

// OnboardingService turns the first-run wizard into stored subjects.
type OnboardingService interface {
	Complete(ctx context.Context, userID uint, req dto.OnboardingRequest) (dto.DashboardResponse, error)
}

type onboardingService struct {
	subjects  repository.SubjectRepository
	settings  repository.SettingsRepository
	dashboard DashboardService
	watcher   *riskWatcher
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewOnboardingService constructs the onboarding service.
func NewOnboardingService(subjects repository.SubjectRepository, settings repository.SettingsRepository, dashboard DashboardService, notifier RiskNotifier, validate *validator.Validate, logger zerolog.Logger) OnboardingService {
	componentLogger := logger.With().Str("component", "onboarding_service").Logger()
	return &onboardingService{
		subjects:  subjects,
		settings:  settings,
		dashboard: dashboard,
		watcher:   newRiskWatcher(notifier, settings, componentLogger),
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    componentLogger,
		tracer:    otel.Tracer("github.com/noah-isme/bunkwise-api/internal/service/onboarding"),
	}
}

func (s *onboardingService) Complete(ctx context.Context, userID uint, req dto.OnboardingRequest) (dto.DashboardResponse, error) {
	ctx, span := s.tracer.Start(ctx, "onboarding.complete")
	defer span.End()

	for i := range req.Subjects {
		req.Subjects[i].Name = cleanName(s.sanitizer, req.Subjects[i].Name)
	}
	if err := s.validator.Struct(req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.DashboardResponse{}, err
	}

	prefs, err := s.settings.Get(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return dto.DashboardResponse{}, err
	}

	subjects := make([]models.Subject, 0, len(req.Subjects))
	for _, row := range req.Subjects {
		if row.Name == "" {
			continue
		}
		target := prefs.DefaultTargetAttendance
		if row.TargetAttendance != nil {
			target = *row.TargetAttendance
		}
		subjects = append(subjects, models.Subject{
			UserID:           userID,
			Name:             row.Name,
			TargetAttendance: target,
			TotalClasses:     row.TotalClasses,
			AttendedClasses:  row.AttendedClasses,
			IsActive:         true,
		})
	}
	if len(subjects) == 0 {
		span.SetStatus(codes.Error, "no subjects")
		return dto.DashboardResponse{}, ErrOnboardingEmpty
	}

	if req.SemesterEndDate != "" {
		end, err := time.Parse(dto.DateLayout, req.SemesterEndDate)
		if err != nil {
			return dto.DashboardResponse{}, err
		}
		prefs.SemesterEndDate = &end
		if err := s.settings.Upsert(ctx, &prefs); err != nil {
			span.RecordError(err)
			return dto.DashboardResponse{}, err
		}
	}

	if err := s.subjects.CreateBatch(ctx, subjects); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.DashboardResponse{}, err
	}
	span.SetAttributes(attribute.Int("onboarding.subjects", len(subjects)))

	for _, subject := range subjects {
		s.watcher.observe(ctx, nil, subject)
	}

	if err := s.dashboard.Invalidate(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to invalidate dashboard cache")
	}

	s.logger.Info().Uint("user_id", userID).Int("subjects", len(subjects)).Msg("onboarding completed")

	response, _, err := s.dashboard.GetDashboard(ctx, userID)
	return response, err
}
