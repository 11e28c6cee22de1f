package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/bunkwise-api/internal/dto"
	"github.com/noah-isme/bunkwise-api/internal/repository"
)

// SettingsService reads and updates user preferences.
type SettingsService interface {
	Get(ctx context.Context, userID uint) (dto.SettingsResponse, error)
	Update(ctx context.Context, userID uint, req dto.SettingsUpdateRequest) (dto.SettingsResponse, error)
}

type settingsService struct {
	repo      repository.SettingsRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSettingsService constructs the settings service.
func NewSettingsService(repo repository.SettingsRepository, validate *validator.Validate, logger zerolog.Logger) SettingsService {
	return &settingsService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "settings_service").Logger(),
	}
}

func (s *settingsService) Get(ctx context.Context, userID uint) (dto.SettingsResponse, error) {
	settings, err := s.repo.Get(ctx, userID)
	if err != nil {
		return dto.SettingsResponse{}, err
	}
	return dto.NewSettingsResponse(settings), nil
}

func (s *settingsService) Update(ctx context.Context, userID uint, req dto.SettingsUpdateRequest) (dto.SettingsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SettingsResponse{}, err
	}

	settings, err := s.repo.Get(ctx, userID)
	if err != nil {
		return dto.SettingsResponse{}, err
	}

	if req.DefaultTargetAttendance != nil {
		settings.DefaultTargetAttendance = *req.DefaultTargetAttendance
	}
	if req.NotificationsEnabled != nil {
		settings.NotificationsEnabled = *req.NotificationsEnabled
	}
	if req.Theme != nil {
		settings.Theme = *req.Theme
	}
	if req.SemesterEndDate != nil {
		if *req.SemesterEndDate == "" {
			settings.SemesterEndDate = nil
		} else {
			parsed, err := time.Parse(dto.DateLayout, *req.SemesterEndDate)
			if err != nil {
				return dto.SettingsResponse{}, err
			}
			settings.SemesterEndDate = &parsed
		}
	}

	if err := s.repo.Upsert(ctx, &settings); err != nil {
		return dto.SettingsResponse{}, err
	}

	s.logger.Info().Uint("user_id", userID).Msg("settings updated")
	return dto.NewSettingsResponse(settings), nil
}
