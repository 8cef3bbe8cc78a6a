package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/englishmastery-api/internal/service"
	"github.com/noah-isme/englishmastery-api/internal/utils"
)

// RecordingHandler accepts presentation recordings.
type RecordingHandler struct {
	service service.RecordingService
	logger  zerolog.Logger
}

// NewRecordingHandler constructs a recording handler.
func NewRecordingHandler(service service.RecordingService, logger zerolog.Logger) *RecordingHandler {
	return &RecordingHandler{
		service: service,
		logger:  logger.With().Str("component", "recording_handler").Logger(),
	}
}

// Register wires recording routes.
func (h *RecordingHandler) Register(router fiber.Router) {
	router.Post("", h.upload)
}

func (h *RecordingHandler) upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	result, err := h.service.Upload(c.UserContext(), file, userIDFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecordingTooLarge):
			return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, service.ErrRecordingTypeNotAllowed), errors.Is(err, service.ErrRecordingMissing):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrRecordingStorageUnavailable):
			return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("recording upload failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "upload failed")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "recording uploaded", result)
}
