package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/englishmastery-api/internal/dto"
	"github.com/noah-isme/englishmastery-api/internal/handler"
	"github.com/noah-isme/englishmastery-api/internal/service"
	"github.com/noah-isme/englishmastery-api/pkg/ai"
)

type mockEvaluationService struct {
	err         error
	learnerID   uint
	role        string
	content     dto.ContentEvaluationRequest
	listRequest dto.EvaluationListRequest
}

func sampleOutcome() dto.EvaluationOutcome {
	return dto.EvaluationOutcome{
		Evaluation: dto.EvaluationResponse{
			ID:               12,
			LearnerID:        7,
			Mode:             "content_rewrite",
			Score:            72,
			Band:             "Good",
			Feedback:         "Clear rewrite with minor slips.",
			Strengths:        []string{"accurate terminology"},
			Weaknesses:       []string{},
			GrammarScore:     80,
			ContentScore:     70,
			OriginalityScore: 65,
			CreatedAt:        time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		},
		Achievements: []dto.AchievementResponse{{Code: "first_evaluation", Title: "First Steps", EvaluationID: 12, AwardedAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}},
	}
}

func (m *mockEvaluationService) EvaluateContent(_ context.Context, learnerID uint, req dto.ContentEvaluationRequest) (dto.EvaluationOutcome, error) {
	m.learnerID = learnerID
	m.content = req
	if m.err != nil {
		return dto.EvaluationOutcome{}, m.err
	}
	return sampleOutcome(), nil
}

func (m *mockEvaluationService) EvaluatePresentation(_ context.Context, learnerID uint, req dto.PresentationEvaluationRequest) (dto.EvaluationOutcome, error) {
	m.learnerID = learnerID
	if m.err != nil {
		return dto.EvaluationOutcome{}, m.err
	}
	outcome := sampleOutcome()
	outcome.Evaluation.Mode = "video_presentation"
	return outcome, nil
}

func (m *mockEvaluationService) List(_ context.Context, learnerID uint, req dto.EvaluationListRequest) (dto.EvaluationListResponse, error) {
	m.learnerID = learnerID
	m.listRequest = req
	if m.err != nil {
		return dto.EvaluationListResponse{}, m.err
	}
	return dto.EvaluationListResponse{
		Items:      []dto.EvaluationResponse{sampleOutcome().Evaluation},
		Pagination: dto.NewPaginationMeta(req.Page, 20, 1),
	}, nil
}

func (m *mockEvaluationService) Get(_ context.Context, id, requesterID uint, role string) (dto.EvaluationResponse, error) {
	m.learnerID = requesterID
	m.role = role
	if m.err != nil {
		return dto.EvaluationResponse{}, m.err
	}
	return sampleOutcome().Evaluation, nil
}

func newEvaluationApp(svc service.EvaluationService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v2/evaluations", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		c.Locals("user_role", "learner")
		return c.Next()
	})
	handler.NewEvaluationHandler(svc, zerolog.New(io.Discard)).Register(group)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func compileSchema(t *testing.T, path string) *jsonschema.Schema {
	t.Helper()
	schema, err := jsonschema.Compile(path)
	require.NoError(t, err)
	return schema
}

func validateAgainst(t *testing.T, schemaPath string, resp *http.Response) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	var document interface{}
	require.NoError(t, json.Unmarshal(body, &document))
	require.NoError(t, compileSchema(t, schemaPath).Validate(document), string(body))
}

func TestEvaluationHandler_ContentMatchesContract(t *testing.T) {
	svc := &mockEvaluationService{}
	app := newEvaluationApp(svc)

	resp := postJSON(t, app, "/api/v2/evaluations/content", map[string]interface{}{
		"reference_text": "Photosynthesis converts light into chemical energy.",
		"candidate_text": "Plants make sugar using light.",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, uint(7), svc.learnerID)
	require.Equal(t, "Plants make sugar using light.", svc.content.CandidateText)

	validateAgainst(t, "testdata/evaluation_outcome.schema.json", resp)
}

func TestEvaluationHandler_PresentationCreated(t *testing.T) {
	app := newEvaluationApp(&mockEvaluationService{})

	resp := postJSON(t, app, "/api/v2/evaluations/presentation", map[string]interface{}{
		"lesson_id":  1,
		"transcript": "Good morning everyone.",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Data dto.EvaluationOutcome `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "video_presentation", body.Data.Evaluation.Mode)
}

func TestEvaluationHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"quota", service.ErrQuotaExceeded, fiber.StatusTooManyRequests},
		{"lesson", service.ErrLessonNotFound, fiber.StatusNotFound},
		{"empty", service.ErrEmptySubmission, fiber.StatusBadRequest},
		{"configuration", &ai.ConfigurationError{Reason: "missing api key"}, fiber.StatusServiceUnavailable},
		{"transport", &ai.TransportError{Provider: "gemini", Err: context.DeadlineExceeded}, fiber.StatusBadGateway},
		{"extraction", &ai.ExtractionError{Reason: "could not parse model response"}, fiber.StatusBadGateway},
		{"result validation", &ai.ValidationError{Field: "score", Reason: "out of range", Result: true}, fiber.StatusBadGateway},
		{"request validation", &ai.ValidationError{Field: "candidateText", Reason: "must not be empty"}, fiber.StatusBadRequest},
		{"unexpected", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newEvaluationApp(&mockEvaluationService{err: tc.err})
			resp := postJSON(t, app, "/api/v2/evaluations/content", map[string]interface{}{
				"reference_text": "ref",
				"candidate_text": "cand",
			})
			require.Equal(t, tc.status, resp.StatusCode)
			validateAgainst(t, "testdata/error_envelope.schema.json", resp)
		})
	}
}

func TestEvaluationHandler_ValidationDetails(t *testing.T) {
	err := dto.NewValidator().Struct(dto.ContentEvaluationRequest{ReferenceText: "ref"})
	require.Error(t, err)

	app := newEvaluationApp(&mockEvaluationService{err: err})
	resp := postJSON(t, app, "/api/v2/evaluations/content", map[string]interface{}{"reference_text": "ref"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body struct {
		Details map[string]string `json:"details"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, "required", body.Details["candidate_text"])
}

func TestEvaluationHandler_MalformedBody(t *testing.T) {
	app := newEvaluationApp(&mockEvaluationService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v2/evaluations/content", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestEvaluationHandler_ListAndGet(t *testing.T) {
	svc := &mockEvaluationService{}
	app := newEvaluationApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/evaluations?page=2&mode=content_rewrite", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 2, svc.listRequest.Page)
	require.Equal(t, "content_rewrite", svc.listRequest.Mode)

	var listBody struct {
		Data []dto.EvaluationResponse `json:"data"`
		Meta dto.PaginationMeta       `json:"meta"`
	}
	decodeResponse(t, resp, &listBody)
	require.Len(t, listBody.Data, 1)
	require.Equal(t, int64(1), listBody.Meta.TotalItems)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/evaluations?page=abc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/evaluations/12", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "learner", svc.role)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v2/evaluations/zero", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	forbidden := newEvaluationApp(&mockEvaluationService{err: service.ErrEvaluationForbidden})
	resp, err = forbidden.Test(httptest.NewRequest(http.MethodGet, "/api/v2/evaluations/12", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}
