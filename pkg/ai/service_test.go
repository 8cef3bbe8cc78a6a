package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubModelClient struct {
	mu       sync.Mutex
	reply    string
	err      error
	prompts  []string
	deadline bool
}

func (s *stubModelClient) Generate(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	_, s.deadline = ctx.Deadline()
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func (s *stubModelClient) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

const validReply = "Here is the evaluation:\n```json\n{\"score\":72,\"feedback\":\"Good\",\"strengths\":[\"clear\"],\"weaknesses\":[\"brief\"],\"grammarScore\":80,\"contentScore\":70,\"originalityScore\":65}\n```\nThanks!"

func newTestService(client ModelClient) *Service {
	return NewService(Config{APIKey: "test-key", Timeout: time.Second}, client, zerolog.Nop())
}

func TestServiceRequiresCredentialBeforeNetwork(t *testing.T) {
	client := &stubModelClient{reply: validReply}
	svc := NewService(Config{}, client, zerolog.Nop())

	_, err := svc.CompareContent(context.Background(), photosynthesisReference, photosynthesisCandidate)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))

	_, err = svc.EvaluatePresentation(context.Background(), photosynthesisReference, photosynthesisCandidate)
	require.True(t, errors.As(err, &cfgErr))

	require.Zero(t, client.calls())
	require.False(t, IsRetryable(err))
}

func TestServiceNilClientIsConfigurationError(t *testing.T) {
	svc := NewService(Config{APIKey: "key"}, nil, zerolog.Nop())

	_, err := svc.CompareContent(context.Background(), "ref", "cand")
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
}

func TestServiceRejectsEmptyTexts(t *testing.T) {
	client := &stubModelClient{reply: validReply}
	svc := newTestService(client)

	_, err := svc.CompareContent(context.Background(), "  ", "candidate")
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Equal(t, "referenceText", validationErr.Field)
	require.False(t, validationErr.Result)

	_, err = svc.EvaluatePresentation(context.Background(), "reference", "")
	require.True(t, errors.As(err, &validationErr))
	require.Equal(t, "candidateText", validationErr.Field)

	require.Zero(t, client.calls())
	require.False(t, IsRetryable(err))
}

func TestServiceCompareContentReturnsParsedResult(t *testing.T) {
	client := &stubModelClient{reply: validReply}
	svc := newTestService(client)

	result, err := svc.CompareContent(context.Background(), photosynthesisReference, photosynthesisCandidate)
	require.NoError(t, err)
	require.Equal(t, 72.0, result.Score)
	require.Equal(t, "Good", result.Feedback)
	require.Equal(t, []string{"clear"}, result.Strengths)
	require.Equal(t, []string{"brief"}, result.Weaknesses)
	require.Equal(t, 80.0, result.GrammarScore)
	require.Equal(t, 70.0, result.ContentScore)
	require.Equal(t, 65.0, result.OriginalityScore)

	require.Equal(t, 1, client.calls())
	require.True(t, client.deadline, "model call should carry a timeout")
}

func TestServiceUsesModeSpecificRubric(t *testing.T) {
	client := &stubModelClient{reply: validReply}
	svc := newTestService(client)

	_, err := svc.CompareContent(context.Background(), "reference", "rewrite")
	require.NoError(t, err)
	_, err = svc.EvaluatePresentation(context.Background(), "reference", "transcript")
	require.NoError(t, err)

	require.Len(t, client.prompts, 2)
	require.Contains(t, client.prompts[0], "under 50 words")
	require.Contains(t, client.prompts[0], "-----BEGIN LEARNER REWRITE-----\nrewrite\n")
	require.Contains(t, client.prompts[1], "under 100 words")
	require.Contains(t, client.prompts[1], "-----BEGIN PRESENTATION TRANSCRIPT-----\ntranscript\n")
}

func TestServiceShortGenericRewriteLandsInFailingBand(t *testing.T) {
	client := &stubModelClient{reply: "```json\n{\"score\":12,\"feedback\":\"Generic and far too short.\",\"strengths\":[],\"weaknesses\":[\"no terminology\",\"under 50 words\"],\"grammarScore\":60,\"contentScore\":10,\"originalityScore\":15}\n```"}
	svc := newTestService(client)

	result, err := svc.CompareContent(context.Background(), photosynthesisReference, photosynthesisCandidate)
	require.NoError(t, err)
	require.Less(t, result.Score, 30.0)
	require.Equal(t, "Failing", BandFor(result.Score))
	require.Contains(t, client.prompts[0], photosynthesisReference)
	require.Contains(t, client.prompts[0], photosynthesisCandidate)
}

func TestServiceProseReplyIsExtractionError(t *testing.T) {
	svc := newTestService(&stubModelClient{reply: "The rewrite is decent overall."})

	_, err := svc.CompareContent(context.Background(), "ref", "cand")
	var extractionErr *ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	require.True(t, IsRetryable(err))
}

func TestServiceMalformedFencedJSONIsParseError(t *testing.T) {
	svc := newTestService(&stubModelClient{reply: "```json\n{\"score\":72,\"feedback\":\"Good\",}\n```"})

	_, err := svc.EvaluatePresentation(context.Background(), "ref", "cand")
	var extractionErr *ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	require.Error(t, extractionErr.Err)
}

func TestServiceWrapsTransportFailures(t *testing.T) {
	cause := errors.New("connection reset")
	client := &stubModelClient{err: cause}
	svc := newTestService(client)

	_, err := svc.CompareContent(context.Background(), "ref", "cand")
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	require.ErrorIs(t, err, cause)
	require.True(t, strings.HasPrefix(err.Error(), "evaluation failed"))
	require.Equal(t, 1, client.calls(), "pipeline must not retry")
}

func TestServiceKeepsProviderTransportError(t *testing.T) {
	original := &TransportError{Provider: "gemini", Err: context.DeadlineExceeded}
	svc := newTestService(&stubModelClient{err: original})

	_, err := svc.EvaluatePresentation(context.Background(), "ref", "cand")
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	require.Equal(t, "gemini", transportErr.Provider)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestServiceRejectsOutOfRangeModelScores(t *testing.T) {
	svc := newTestService(&stubModelClient{reply: "{\"score\":72,\"feedback\":\"Good\",\"grammarScore\":-5,\"contentScore\":70,\"originalityScore\":65}"})

	_, err := svc.CompareContent(context.Background(), "ref", "cand")
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Equal(t, "grammarScore", validationErr.Field)
	require.True(t, IsRetryable(err))
}

func TestServiceEnforceWordLimitsCapsShortSubmissions(t *testing.T) {
	client := &stubModelClient{reply: validReply}
	svc := NewService(Config{APIKey: "key", EnforceWordLimits: true}, client, zerolog.Nop())

	result, err := svc.CompareContent(context.Background(), photosynthesisReference, photosynthesisCandidate)
	require.NoError(t, err)
	require.Equal(t, 19.0, result.Score)
	require.Equal(t, 80.0, result.GrammarScore, "sub-scores are untouched")

	longRewrite := strings.Repeat("chlorophyll ", 60)
	result, err = svc.CompareContent(context.Background(), photosynthesisReference, longRewrite)
	require.NoError(t, err)
	require.Equal(t, 72.0, result.Score)

	result, err = svc.EvaluatePresentation(context.Background(), photosynthesisReference, longRewrite)
	require.NoError(t, err)
	require.Equal(t, 19.0, result.Score, "60 words is under the presentation threshold")
}

func TestServiceConcurrentCalls(t *testing.T) {
	client := &stubModelClient{reply: validReply}
	svc := newTestService(client)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = svc.CompareContent(context.Background(), "ref", "cand")
			} else {
				_, err = svc.EvaluatePresentation(context.Background(), "ref", "cand")
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 16, client.calls())
}
