package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/bunkwise-api/internal/dto"
	"github.com/noah-isme/bunkwise-api/internal/service"
	"github.com/noah-isme/bunkwise-api/internal/utils"
)

// OnboardingHandler accepts the first-run subject list.
type OnboardingHandler struct {
	service service.OnboardingService
	logger  zerolog.Logger
}

// NewOnboardingHandler constructs an onboarding handler.
func NewOnboardingHandler(service service.OnboardingService, logger zerolog.Logger) *OnboardingHandler {
	return &OnboardingHandler{
		service: service,
		logger:  logger.With().Str("component", "onboarding_handler").Logger(),
	}
}

// Register wires onboarding routes.
func (h *OnboardingHandler) Register(router fiber.Router) {
	router.Post("/onboarding", h.complete)
}

func (h *OnboardingHandler) complete(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "missing user context")
	}

	var req dto.OnboardingRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request payload")
	}

	dashboard, err := h.service.Complete(c.UserContext(), userID, req)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
		case errors.Is(err, service.ErrOnboardingEmpty), errors.Is(err, service.ErrInvalidSubjectCounts):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("user_id", userID).Msg("onboarding failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to complete onboarding")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "onboarding completed", dashboard)
}
