package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/bunkwise-api/internal/attendance"
	"github.com/noah-isme/bunkwise-api/internal/dto"
	"github.com/noah-isme/bunkwise-api/internal/models"
	"github.com/noah-isme/bunkwise-api/internal/observability"
	"github.com/noah-isme/bunkwise-api/internal/repository"
)

// DashboardService produces the multi-subject rollup for a user.
type DashboardService interface {
	GetDashboard(ctx context.Context, userID uint) (dto.DashboardResponse, bool, error)
	Invalidate(ctx context.Context, userID uint) error
}

type dashboardService struct {
	subjects repository.SubjectRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewDashboardService builds the dashboard aggregator.
func NewDashboardService(subjects repository.SubjectRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		subjects: subjects,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "dashboard_service").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/bunkwise-api/internal/service/dashboard"),
	}
}

func dashboardCacheKey(userID uint) string {
	return fmt.Sprintf("dashboard:user:%d", userID)
}

func (s *dashboardService) GetDashboard(ctx context.Context, userID uint) (dto.DashboardResponse, bool, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.get", trace.WithAttributes(attribute.Int("user.id", int(userID))))
	defer span.End()

	cacheKey := dashboardCacheKey(userID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.DashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("user_id", userID).Msg("dashboard cache hit")
				observability.DashboardCache().WithLabelValues("hit").Inc()
				span.SetAttributes(attribute.Bool("cache.hit", true))
				return response, true, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}
	observability.DashboardCache().WithLabelValues("miss").Inc()

	subjects, err := s.subjects.List(ctx, userID, repository.SubjectFilter{})
	if err != nil {
		span.RecordError(err)
		return dto.DashboardResponse{}, false, err
	}

	response := buildDashboard(subjects)

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, false, nil
}

func (s *dashboardService) Invalidate(ctx context.Context, userID uint) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, dashboardCacheKey(userID)).Err()
}

func buildDashboard(subjects []models.Subject) dto.DashboardResponse {
	inputs := make([]attendance.Subject, 0, len(subjects))
	for _, subject := range subjects {
		inputs = append(inputs, subject.AttendanceSubject())
	}

	rollup := attendance.Aggregate(inputs)
	for _, projection := range rollup.Subjects {
		observability.Projections().WithLabelValues("dashboard", string(projection.Result.Status)).Inc()
	}

	return dto.NewDashboardResponse(rollup, subjects)
}
