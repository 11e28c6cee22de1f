package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/bunkwise-api/internal/middleware"
	"github.com/noah-isme/bunkwise-api/internal/service"
	"github.com/noah-isme/bunkwise-api/internal/utils"
)

// ScreenshotHandler accepts portal screenshots and imports the extracted subjects.
type ScreenshotHandler struct {
	service service.ScreenshotService
	logger  zerolog.Logger
}

// NewScreenshotHandler constructs a screenshot handler.
func NewScreenshotHandler(service service.ScreenshotService, logger zerolog.Logger) *ScreenshotHandler {
	return &ScreenshotHandler{
		service: service,
		logger:  logger.With().Str("component", "screenshot_handler").Logger(),
	}
}

// Register wires screenshot routes. Guests cannot use the extractor.
func (h *ScreenshotHandler) Register(router fiber.Router) {
	member := middleware.AuthOptions{Role: middleware.AuthRoleMember}
	router.Post("", middleware.WithAuth(h.upload, member))
	router.Get("/:id", middleware.WithAuth(h.get, member))
	router.Post("/:id/import", middleware.WithAuth(h.importSubjects, member))
}

func (h *ScreenshotHandler) upload(c *fiber.Ctx) error {
	userID := userIDFromContext(c)

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, service.ErrScreenshotRequired.Error())
	}

	result, err := h.service.Process(c.UserContext(), userID, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrScreenshotTooLarge):
			return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, service.ErrScreenshotRequired), errors.Is(err, service.ErrScreenshotTypeNotAllowed):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrExtractionFailed):
			return utils.Fail(c, fiber.StatusUnprocessableEntity, service.ErrExtractionFailed.Error(), result)
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("user_id", userID).Msg("screenshot processing failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to process screenshot")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "screenshot processed", result)
}

func (h *ScreenshotHandler) get(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid screenshot id")
	}

	result, err := h.service.Get(c.UserContext(), userID, id)
	if err != nil {
		if errors.Is(err, service.ErrScreenshotNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("screenshot_id", id).Msg("failed to load screenshot")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load screenshot")
	}

	return utils.SendSuccess(c, "screenshot retrieved", result)
}

func (h *ScreenshotHandler) importSubjects(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid screenshot id")
	}

	subjects, err := h.service.Import(c.UserContext(), userID, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrScreenshotNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrScreenshotNotImportable):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("screenshot_id", id).Msg("failed to import screenshot")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to import screenshot")
		}
	}

	return utils.OK(c, subjects, "subjects imported", fiber.Map{"count": len(subjects)})
}
