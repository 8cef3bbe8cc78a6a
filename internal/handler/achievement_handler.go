package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/englishmastery-api/internal/service"
	"github.com/noah-isme/englishmastery-api/internal/utils"
)

// AchievementHandler lists the caller's badges.
type AchievementHandler struct {
	service service.AchievementService
	logger  zerolog.Logger
}

// NewAchievementHandler constructs an achievement handler.
func NewAchievementHandler(service service.AchievementService, logger zerolog.Logger) *AchievementHandler {
	return &AchievementHandler{
		service: service,
		logger:  logger.With().Str("component", "achievement_handler").Logger(),
	}
}

// Register wires achievement routes.
func (h *AchievementHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *AchievementHandler) list(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext(), userIDFromContext(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list achievements")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load achievements")
	}
	return utils.SendSuccess(c, "achievements retrieved", items)
}
