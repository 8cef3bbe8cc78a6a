package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/englishmastery-api/internal/dto"
	"github.com/noah-isme/englishmastery-api/internal/service"
	"github.com/noah-isme/englishmastery-api/internal/utils"
	"github.com/noah-isme/englishmastery-api/pkg/ai"
)

// EvaluationHandler exposes the grading endpoints.
type EvaluationHandler struct {
	service service.EvaluationService
	logger  zerolog.Logger
}

// NewEvaluationHandler constructs an evaluation handler.
func NewEvaluationHandler(service service.EvaluationService, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		service: service,
		logger:  logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register wires evaluation routes. Submissions go through the optional
// limiter so history reads are never throttled.
func (h *EvaluationHandler) Register(router fiber.Router, limiter ...fiber.Handler) {
	submit := append(append([]fiber.Handler{}, limiter...), h.evaluateContent)
	router.Post("/content", submit...)

	submit = append(append([]fiber.Handler{}, limiter...), h.evaluatePresentation)
	router.Post("/presentation", submit...)

	router.Get("", h.list)
	router.Get("/:id", h.get)
}

func (h *EvaluationHandler) evaluateContent(c *fiber.Ctx) error {
	var payload dto.ContentEvaluationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	outcome, err := h.service.EvaluateContent(c.UserContext(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "content evaluated", outcome)
}

func (h *EvaluationHandler) evaluatePresentation(c *fiber.Ctx) error {
	var payload dto.PresentationEvaluationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	outcome, err := h.service.EvaluatePresentation(c.UserContext(), userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "presentation evaluated", outcome)
}

func (h *EvaluationHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.List(c.UserContext(), userIDFromContext(c), dto.EvaluationListRequest{
		Page:     page,
		PageSize: pageSize,
		Mode:     c.Query("mode"),
	})
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OK(c, result.Items, "evaluations retrieved", result.Pagination)
}

func (h *EvaluationHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.Get(c.UserContext(), id, userIDFromContext(c), userRoleFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "evaluation retrieved", result)
}

func (h *EvaluationHandler) handleError(c *fiber.Ctx, err error) error {
	if details, ok := validationDetails(err); ok {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
	}

	var (
		cfgErr        *ai.ConfigurationError
		transportErr  *ai.TransportError
		extractionErr *ai.ExtractionError
		aiValidation  *ai.ValidationError
	)

	switch {
	case errors.Is(err, service.ErrLessonNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "lesson not found")
	case errors.Is(err, service.ErrEvaluationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "evaluation not found")
	case errors.Is(err, service.ErrEvaluationForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "evaluation belongs to another learner")
	case errors.Is(err, service.ErrEmptySubmission):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrQuotaExceeded):
		return utils.SendError(c, fiber.StatusTooManyRequests, err.Error())
	case errors.As(err, &cfgErr):
		requestLogger(h.logger, c).Error().Err(err).Msg("evaluator is not configured")
		return utils.SendError(c, fiber.StatusServiceUnavailable, "evaluation service is not configured")
	case errors.As(err, &aiValidation) && !aiValidation.Result:
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", map[string]string{aiValidation.Field: aiValidation.Reason})
	case errors.As(err, &transportErr), errors.As(err, &extractionErr), errors.As(err, &aiValidation):
		requestLogger(h.logger, c).Warn().Err(err).Msg("model evaluation failed")
		return utils.Fail(c, fiber.StatusBadGateway, "evaluation failed, please retry", map[string]bool{"retryable": ai.IsRetryable(err)})
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("evaluation request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to process evaluation")
	}
}
