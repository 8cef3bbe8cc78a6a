package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/englishmastery-api/internal/dto"
	"github.com/noah-isme/englishmastery-api/internal/service"
	"github.com/noah-isme/englishmastery-api/internal/utils"
)

// LessonHandler exposes the lesson catalogue.
type LessonHandler struct {
	service service.LessonService
	logger  zerolog.Logger
}

// NewLessonHandler constructs a lesson handler.
func NewLessonHandler(service service.LessonService, logger zerolog.Logger) *LessonHandler {
	return &LessonHandler{
		service: service,
		logger:  logger.With().Str("component", "lesson_handler").Logger(),
	}
}

// Register wires lesson routes. createGuard protects lesson publishing.
func (h *LessonHandler) Register(router fiber.Router, createGuard fiber.Handler) {
	router.Get("", h.list)
	router.Get("/:slug", h.get)
	if createGuard != nil {
		router.Post("", createGuard, h.create)
	} else {
		router.Post("", h.create)
	}
}

func (h *LessonHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.List(c.UserContext(), dto.LessonListRequest{
		Page:     page,
		PageSize: pageSize,
		Level:    c.Query("level"),
		Search:   c.Query("search"),
	})
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OK(c, result.Items, "lessons retrieved", result.Pagination)
}

func (h *LessonHandler) get(c *fiber.Ctx) error {
	lesson, err := h.service.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "lesson retrieved", lesson)
}

func (h *LessonHandler) create(c *fiber.Ctx) error {
	var payload dto.LessonCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	lesson, err := h.service.Create(c.UserContext(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "lesson created", lesson)
}

func (h *LessonHandler) handleError(c *fiber.Ctx, err error) error {
	if details, ok := validationDetails(err); ok {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
	}

	switch {
	case errors.Is(err, service.ErrLessonNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "lesson not found")
	case errors.Is(err, service.ErrLessonSlugTaken):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("lesson request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to process lesson request")
	}
}
