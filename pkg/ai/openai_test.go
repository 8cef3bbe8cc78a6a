package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func chatCompletionBody(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
			},
		},
		"usage": map[string]interface{}{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	}
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxRetries: 2, WaitMin: time.Millisecond, WaitMax: 2 * time.Millisecond}
}

func newTestOpenAIClient(t *testing.T, serverURL string) *OpenAIClient {
	t.Helper()
	client, err := NewOpenAIClient(OpenAIConfig{
		APIKey:     "test-key",
		BaseURL:    serverURL + "/v1",
		HTTPClient: NewHTTPClient(fastRetry(), zerolog.Nop()),
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)
	return client
}

func TestOpenAIClientGenerate(t *testing.T) {
	var received struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	var path, authorization string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		authorization = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletionBody("  " + validReply + "  "))
	}))
	defer server.Close()

	client := newTestOpenAIClient(t, server.URL)
	reply, err := client.Generate(context.Background(), "grade this")
	require.NoError(t, err)
	require.Equal(t, validReply, reply)
	require.Equal(t, "/v1/chat/completions", path)
	require.Equal(t, "Bearer test-key", authorization)
	require.Equal(t, "gpt-4o-mini", received.Model)
	require.Len(t, received.Messages, 1)
	require.Equal(t, "grade this", received.Messages[0].Content)
}

func TestOpenAIClientRetriesTransientFailures(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletionBody(validReply))
	}))
	defer server.Close()

	client := newTestOpenAIClient(t, server.URL)
	reply, err := client.Generate(context.Background(), "grade this")
	require.NoError(t, err)
	require.Equal(t, validReply, reply)
	require.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestOpenAIClientDoesNotRetryClientErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad request","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client := newTestOpenAIClient(t, server.URL)
	_, err := client.Generate(context.Background(), "grade this")

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	require.Equal(t, "openai", transportErr.Provider)
	require.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestOpenAIClientEmptyChoicesReturnsEmptyText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := chatCompletionBody("")
		body["choices"] = []interface{}{}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	defer server.Close()

	svc := newTestService(newTestOpenAIClient(t, server.URL))
	_, err := svc.CompareContent(context.Background(), "ref", "cand")

	var extractionErr *ExtractionError
	require.True(t, errors.As(err, &extractionErr))
}

func TestModelClientsRequireCredential(t *testing.T) {
	_, err := NewOpenAIClient(OpenAIConfig{})
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))

	_, err = NewGeminiClient(context.Background(), GeminiConfig{APIKey: " "})
	require.True(t, errors.As(err, &cfgErr))

	client, err := NewModelClient(context.Background(), ProviderConfig{Provider: "openai", Logger: zerolog.Nop()})
	require.True(t, errors.As(err, &cfgErr))
	require.Nil(t, client)

	_, err = NewModelClient(context.Background(), ProviderConfig{Provider: "llama", APIKey: "key", Logger: zerolog.Nop()})
	require.True(t, errors.As(err, &cfgErr))
	require.Contains(t, err.Error(), "llama")
}

func TestNewModelClientSelectsProvider(t *testing.T) {
	client, err := NewModelClient(context.Background(), ProviderConfig{Provider: "OpenAI", APIKey: "key", Model: "gpt-4.1-mini", Logger: zerolog.Nop()})
	require.NoError(t, err)
	require.IsType(t, &OpenAIClient{}, client)
	require.Equal(t, "gpt-4.1-mini", client.Model())
}
