package anthropic_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/FaridSuleymanov/sibyl/internal/adapter/llm/anthropic"
	llmhttp "github.com/FaridSuleymanov/sibyl/internal/adapter/llm/http"
	"github.com/FaridSuleymanov/sibyl/internal/config"
	"github.com/FaridSuleymanov/sibyl/internal/usecase/analyze"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEndpointConfig() config.EndpointConfig {
	return config.EndpointConfig{
		Provider: "anthropic",
		Model:    "claude-sonnet-4-20250514",
		APIKey:   "test-api-key",
	}
}

func testHTTPConfig() config.HTTPConfig {
	return config.HTTPConfig{
		Timeout:           "60s",
		MaxRetries:        2,
		InitialBackoff:    "1ms",
		MaxBackoff:        "5ms",
		BackoffMultiplier: 2.0,
	}
}

func TestClient_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req anthropic.MessagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-sonnet-4-20250514", req.Model)
		assert.Equal(t, "system text", req.System)
		assert.Equal(t, 2048, req.MaxTokens)
		assert.InDelta(t, 0.7, req.Temperature, 0.001)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "prompt text", req.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropic.MessagesResponse{
			ID:   "msg_123",
			Type: "message",
			Role: "assistant",
			Content: []anthropic.ContentBlock{
				{Type: "text", Text: "first part "},
				{Type: "text", Text: "second part"},
			},
			Model:      "claude-sonnet-4-20250514",
			StopReason: "end_turn",
			Usage:      anthropic.Usage{InputTokens: 10, OutputTokens: 20},
		})
	}))
	defer server.Close()

	client := anthropic.NewClient(testEndpointConfig(), testHTTPConfig())
	client.SetBaseURL(server.URL)

	text, err := client.Complete(context.Background(), analyze.CompletionRequest{
		System:      "system text",
		Prompt:      "prompt text",
		Temperature: 0.7,
		MaxTokens:   2048,
	})

	require.NoError(t, err)
	assert.Equal(t, "first part second part", text)
}

func TestClient_Complete_AuthenticationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(anthropic.ErrorResponse{
			Type:  "error",
			Error: anthropic.ErrorDetail{Type: "authentication_error", Message: "invalid x-api-key"},
		})
	}))
	defer server.Close()

	client := anthropic.NewClient(testEndpointConfig(), testHTTPConfig())
	client.SetBaseURL(server.URL)

	_, err := client.Complete(context.Background(), analyze.CompletionRequest{Prompt: "p", MaxTokens: 100})

	require.Error(t, err)
	var httpErr *llmhttp.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, llmhttp.ErrTypeAuthentication, httpErr.Type)
	assert.False(t, httpErr.Retryable)
	assert.Contains(t, httpErr.Message, "invalid x-api-key")
}

func TestClient_Complete_RetriesOverloaded(t *testing.T) {
	// 529 is Anthropic's overloaded status; it must retry and then succeed.
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(529)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropic.MessagesResponse{
			Content: []anthropic.ContentBlock{{Type: "text", Text: "recovered"}},
		})
	}))
	defer server.Close()

	client := anthropic.NewClient(testEndpointConfig(), testHTTPConfig())
	client.SetBaseURL(server.URL)

	text, err := client.Complete(context.Background(), analyze.CompletionRequest{Prompt: "p", MaxTokens: 100})

	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_Complete_RateLimitExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := anthropic.NewClient(testEndpointConfig(), testHTTPConfig())
	client.SetBaseURL(server.URL)

	_, err := client.Complete(context.Background(), analyze.CompletionRequest{Prompt: "p", MaxTokens: 100})

	require.Error(t, err)
	var httpErr *llmhttp.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, llmhttp.ErrTypeRateLimit, httpErr.Type)
	// MaxRetries=2 means 3 attempts total.
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Complete_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropic.MessagesResponse{})
	}))
	defer server.Close()

	client := anthropic.NewClient(testEndpointConfig(), testHTTPConfig())
	client.SetBaseURL(server.URL)

	_, err := client.Complete(context.Background(), analyze.CompletionRequest{Prompt: "p", MaxTokens: 100})

	assert.Error(t, err)
}

func TestClient_Complete_RecordsMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropic.MessagesResponse{
			Content: []anthropic.ContentBlock{{Type: "text", Text: "ok"}},
			Usage:   anthropic.Usage{InputTokens: 7, OutputTokens: 3},
		})
	}))
	defer server.Close()

	metrics := llmhttp.NewDefaultMetrics()
	client := anthropic.NewClient(testEndpointConfig(), testHTTPConfig())
	client.SetBaseURL(server.URL)
	client.SetMetrics(metrics)

	_, err := client.Complete(context.Background(), analyze.CompletionRequest{Prompt: "p", MaxTokens: 100})

	require.NoError(t, err)
	stats := metrics.GetStats()
	assert.Equal(t, 1, stats.TotalRequests)
	assert.Equal(t, 7, stats.TotalTokensIn)
	assert.Equal(t, 3, stats.TotalTokensOut)
	assert.Equal(t, 1, stats.ByEndpoint["anthropic"].Requests)
}
