package handler

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/bunkwise-api/internal/dto"
	"github.com/noah-isme/bunkwise-api/internal/observability"
	"github.com/noah-isme/bunkwise-api/internal/service"
	"github.com/noah-isme/bunkwise-api/internal/utils"
)

// CalculatorHandler exposes the stateless calculator over HTTP and a live websocket.
type CalculatorHandler struct {
	service service.CalculatorService
	logger  zerolog.Logger
}

// NewCalculatorHandler creates a calculator handler.
func NewCalculatorHandler(service service.CalculatorService, logger zerolog.Logger) *CalculatorHandler {
	return &CalculatorHandler{
		service: service,
		logger:  logger.With().Str("component", "calculator_handler").Logger(),
	}
}

// Register binds calculator routes. Extra handlers, such as a rate limiter, wrap only the
// HTTP endpoint.
func (h *CalculatorHandler) Register(router fiber.Router, limiters ...fiber.Handler) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			c.Locals("request_ctx", ctx)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(h.live))

	handlers := append(append([]fiber.Handler{}, limiters...), h.calculate)
	router.Post("/calculate", handlers...)
}

func (h *CalculatorHandler) calculate(c *fiber.Ctx) error {
	var req dto.CalculateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request payload")
	}

	result, err := h.service.Calculate(c.UserContext(), service.SourceCalculator, req)
	if err != nil {
		if isValidationError(err) {
			return utils.Fail(c, fiber.StatusBadRequest, "invalid calculator input", validationDetails(err))
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("projection failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to calculate projection")
	}
	return utils.SendSuccess(c, "projection calculated", result)
}

func (h *CalculatorHandler) live(conn *websocket.Conn) {
	ctx, _ := conn.Locals("request_ctx").(context.Context)
	if ctx == nil {
		ctx = context.Background()
	}
	correlation, _ := conn.Locals("correlation_id").(string)
	logger := h.logger.With().Str("correlation_id", correlation).Logger()

	gauge := observability.CalculatorSockets()
	gauge.Inc()
	defer gauge.Dec()

	logger.Debug().Msg("calculator socket connected")
	defer logger.Debug().Msg("calculator socket disconnected")

	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}

		var req dto.CalculateRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			if writeErr := conn.WriteJSON(dto.CalculatorSocketError{Error: "invalid calculator input"}); writeErr != nil {
				return
			}
			continue
		}

		result, err := h.service.Calculate(ctx, service.SourceLive, req)
		if err != nil {
			if writeErr := conn.WriteJSON(dto.CalculatorSocketError{Error: "invalid calculator input"}); writeErr != nil {
				return
			}
			continue
		}

		if err := conn.WriteJSON(result); err != nil {
			logger.Warn().Err(err).Msg("failed to write projection")
			return
		}
	}
}
