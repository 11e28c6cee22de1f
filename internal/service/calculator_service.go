package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/bunkwise-api/internal/attendance"
	"github.com/noah-isme/bunkwise-api/internal/dto"
	"github.com/noah-isme/bunkwise-api/internal/observability"
)

// Projection sources used as metric labels.
const (
	SourceCalculator = "calculator"
	SourceLive       = "live"
)

// CalculatorService runs stateless single-subject projections.
type CalculatorService interface {
	Calculate(ctx context.Context, source string, req dto.CalculateRequest) (dto.ProjectionResponse, error)
}

type calculatorService struct {
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewCalculatorService constructs the calculator.
func NewCalculatorService(validate *validator.Validate, logger zerolog.Logger) CalculatorService {
	return &calculatorService{
		validator: validate,
		logger:    logger.With().Str("component", "calculator_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/bunkwise-api/internal/service/calculator"),
	}
}

func (s *calculatorService) Calculate(ctx context.Context, source string, req dto.CalculateRequest) (dto.ProjectionResponse, error) {
	_, span := s.tracer.Start(ctx, "calculator.project", trace.WithAttributes(attribute.String("projection.source", source)))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.ProjectionResponse{}, err
	}

	result := attendance.Project(req.Input())
	span.SetAttributes(attribute.String("projection.status", string(result.Status)))
	observability.Projections().WithLabelValues(source, string(result.Status)).Inc()
	s.logger.Debug().Str("source", source).Str("status", string(result.Status)).Msg("projection computed")

	return dto.NewProjectionResponse(result), nil
}
