package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/bunkwise-api/internal/models"
	"github.com/noah-isme/bunkwise-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// demoSubjects spans every status band so a fresh account shows the whole dashboard.
var demoSubjects = []struct {
	name     string
	total    int
	attended int
}{
	{name: "Mathematics", total: 42, attended: 36},
	{name: "Physics", total: 38, attended: 31},
	{name: "Chemistry", total: 40, attended: 28},
	{name: "Computer Science", total: 36, attended: 34},
	{name: "English", total: 20, attended: 12},
}

// SeedService fills an account with demo subjects for local development.
type SeedService interface {
	SeedDemo(ctx context.Context, token string, userID uint) (int, error)
}

type seedService struct {
	subjects  repository.SubjectRepository
	settings  repository.SettingsRepository
	dashboard DashboardService
	enabled   bool
	token     string
	logger    zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(subjects repository.SubjectRepository, settings repository.SettingsRepository, dashboard DashboardService, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		subjects:  subjects,
		settings:  settings,
		dashboard: dashboard,
		enabled:   enabled,
		token:     token,
		logger:    logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) SeedDemo(ctx context.Context, token string, userID uint) (int, error) {
	if !s.enabled {
		return 0, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return 0, ErrSeedUnauthorized
	}

	prefs, err := s.settings.Get(ctx, userID)
	if err != nil {
		return 0, err
	}

	subjects := make([]models.Subject, 0, len(demoSubjects))
	for _, demo := range demoSubjects {
		subjects = append(subjects, models.Subject{
			UserID:           userID,
			Name:             demo.name,
			TargetAttendance: prefs.DefaultTargetAttendance,
			TotalClasses:     demo.total,
			AttendedClasses:  demo.attended,
			IsActive:         true,
		})
	}
	if err := s.subjects.CreateBatch(ctx, subjects); err != nil {
		return 0, err
	}

	if s.dashboard != nil {
		if err := s.dashboard.Invalidate(ctx, userID); err != nil {
			s.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to invalidate dashboard cache")
		}
	}

	s.logger.Info().Uint("user_id", userID).Int("subjects", len(subjects)).Msg("demo subjects seeded")
	return len(subjects), nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}
