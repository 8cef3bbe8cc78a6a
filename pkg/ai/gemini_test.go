package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func geminiBody(parts ...string) map[string]interface{} {
	items := make([]map[string]interface{}, 0, len(parts))
	for _, text := range parts {
		items = append(items, map[string]interface{}{"text": text})
	}
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content":      map[string]interface{}{"role": "model", "parts": items},
				"finishReason": "STOP",
			},
		},
	}
}

func newTestGeminiClient(t *testing.T, serverURL string) *GeminiClient {
	t.Helper()
	client, err := NewGeminiClient(context.Background(), GeminiConfig{
		APIKey:     "test-key",
		BaseURL:    serverURL + "/",
		HTTPClient: NewHTTPClient(fastRetry(), zerolog.Nop()),
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)
	return client
}

func TestGeminiClientGenerateJoinsTextParts(t *testing.T) {
	var path, apiKey, prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		apiKey = r.Header.Get("x-goog-api-key")

		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Contents) > 0 && len(body.Contents[0].Parts) > 0 {
			prompt = body.Contents[0].Parts[0].Text
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(geminiBody("Here is the evaluation:\n", validReply[len("Here is the evaluation:\n"):]+"\n"))
	}))
	defer server.Close()

	client := newTestGeminiClient(t, server.URL)
	require.Equal(t, "gemini-1.5-flash", client.Model())

	reply, err := client.Generate(context.Background(), "grade this")
	require.NoError(t, err)
	require.Equal(t, validReply, reply)
	require.True(t, strings.HasSuffix(path, "models/gemini-1.5-flash:generateContent"), path)
	require.Equal(t, "test-key", apiKey)
	require.Equal(t, "grade this", prompt)

	result, err := newTestService(client).CompareContent(context.Background(), "ref", "cand")
	require.NoError(t, err)
	require.Equal(t, 72.0, result.Score)
}

func TestGeminiClientErrorStatusIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	_, err := newTestGeminiClient(t, server.URL).Generate(context.Background(), "grade this")

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	require.Equal(t, "gemini", transportErr.Provider)
	require.True(t, IsRetryable(err))
}

func TestGeminiClientWithoutCandidatesReturnsEmptyText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	reply, err := newTestGeminiClient(t, server.URL).Generate(context.Background(), "grade this")
	require.NoError(t, err)
	require.Empty(t, reply)
}
