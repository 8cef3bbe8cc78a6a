package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/englishmastery-api/internal/service"
	"github.com/noah-isme/englishmastery-api/internal/utils"
)

// ProgressHandler serves the caller's score summary.
type ProgressHandler struct {
	service service.ProgressService
	logger  zerolog.Logger
}

// NewProgressHandler constructs a progress handler.
func NewProgressHandler(service service.ProgressService, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		service: service,
		logger:  logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register wires progress routes.
func (h *ProgressHandler) Register(router fiber.Router) {
	router.Get("", h.get)
}

func (h *ProgressHandler) get(c *fiber.Ctx) error {
	progress, err := h.service.GetProgress(c.UserContext(), userIDFromContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to build progress")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load progress")
	}
	return utils.SendSuccess(c, "progress retrieved", progress)
}
