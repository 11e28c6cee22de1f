package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/bunkwise-api/internal/dto"
	"github.com/noah-isme/bunkwise-api/internal/service"
	"github.com/noah-isme/bunkwise-api/internal/utils"
)

// SubjectHandler exposes subject management and the per-subject attendance log.
type SubjectHandler struct {
	subjects service.SubjectService
	records  service.AttendanceRecordService
	logger   zerolog.Logger
}

// NewSubjectHandler constructs a subject handler.
func NewSubjectHandler(subjects service.SubjectService, records service.AttendanceRecordService, logger zerolog.Logger) *SubjectHandler {
	return &SubjectHandler{
		subjects: subjects,
		records:  records,
		logger:   logger.With().Str("component", "subject_handler").Logger(),
	}
}

// Register wires subject routes.
func (h *SubjectHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Get("/:id/focus", h.focus)
	router.Post("/:id/records", h.recordAttendance)
	router.Get("/:id/records", h.listRecords)
}

func (h *SubjectHandler) list(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "missing user context")
	}

	subjects, err := h.subjects.List(c.UserContext(), userID, parseQueryBool(c, "include_inactive"))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("user_id", userID).Msg("failed to list subjects")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list subjects")
	}

	return utils.OK(c, subjects, "subjects retrieved", fiber.Map{"count": len(subjects)})
}

func (h *SubjectHandler) create(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "missing user context")
	}

	var req dto.SubjectCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request payload")
	}

	subject, err := h.subjects.Create(c.UserContext(), userID, req)
	if err != nil {
		return h.handleError(c, err, "failed to create subject")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "subject created", subject)
}

func (h *SubjectHandler) get(c *fiber.Ctx) error {
	userID, id, ok := h.identify(c)
	if !ok {
		return nil
	}

	subject, err := h.subjects.Get(c.UserContext(), userID, id)
	if err != nil {
		return h.handleError(c, err, "failed to load subject")
	}

	return utils.SendSuccess(c, "subject retrieved", subject)
}

func (h *SubjectHandler) update(c *fiber.Ctx) error {
	userID, id, ok := h.identify(c)
	if !ok {
		return nil
	}

	var req dto.SubjectUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request payload")
	}

	subject, err := h.subjects.Update(c.UserContext(), userID, id, req)
	if err != nil {
		return h.handleError(c, err, "failed to update subject")
	}

	return utils.SendSuccess(c, "subject updated", subject)
}

func (h *SubjectHandler) delete(c *fiber.Ctx) error {
	userID, id, ok := h.identify(c)
	if !ok {
		return nil
	}

	if err := h.subjects.Delete(c.UserContext(), userID, id); err != nil {
		return h.handleError(c, err, "failed to delete subject")
	}

	return utils.SendSuccess(c, "subject archived", nil)
}

func (h *SubjectHandler) focus(c *fiber.Ctx) error {
	userID, id, ok := h.identify(c)
	if !ok {
		return nil
	}

	focus, err := h.subjects.Focus(c.UserContext(), userID, id)
	if err != nil {
		return h.handleError(c, err, "failed to load subject focus")
	}

	return utils.SendSuccess(c, "subject focus retrieved", focus)
}

func (h *SubjectHandler) recordAttendance(c *fiber.Ctx) error {
	userID, id, ok := h.identify(c)
	if !ok {
		return nil
	}

	var req dto.RecordCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request payload")
	}

	result, err := h.records.Record(c.UserContext(), userID, id, req)
	if err != nil {
		return h.handleError(c, err, "failed to record attendance")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "attendance recorded", result)
}

func (h *SubjectHandler) listRecords(c *fiber.Ctx) error {
	userID, id, ok := h.identify(c)
	if !ok {
		return nil
	}

	var query dto.RecordListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	records, err := h.records.List(c.UserContext(), userID, id, query)
	if err != nil {
		return h.handleError(c, err, "failed to list attendance records")
	}

	return utils.OK(c, records, "attendance records retrieved", fiber.Map{"count": len(records)})
}

// identify resolves the caller and the subject id. On failure the error response has
// already been written.
func (h *SubjectHandler) identify(c *fiber.Ctx) (uint, uint, bool) {
	userID := userIDFromContext(c)
	if userID == 0 {
		_ = utils.SendError(c, fiber.StatusUnauthorized, "missing user context")
		return 0, 0, false
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		_ = utils.SendError(c, fiber.StatusBadRequest, "invalid subject id")
		return 0, 0, false
	}
	return userID, id, true
}

func (h *SubjectHandler) handleError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
	case errors.Is(err, service.ErrSubjectNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidSubjectCounts),
		errors.Is(err, service.ErrSubjectNameRequired),
		errors.Is(err, service.ErrInvalidRecordStatus),
		errors.Is(err, service.ErrInvalidDateRange):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
