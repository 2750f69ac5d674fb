package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/FaridSuleymanov/sibyl/internal/adapter/llm/gemini"
	llmhttp "github.com/FaridSuleymanov/sibyl/internal/adapter/llm/http"
	"github.com/FaridSuleymanov/sibyl/internal/config"
	"github.com/FaridSuleymanov/sibyl/internal/usecase/analyze"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEndpointConfig() config.EndpointConfig {
	return config.EndpointConfig{
		Provider: "gemini",
		Model:    "gemini-2.0-flash",
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
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-api-key", r.URL.Query().Get("key"))

		var req gemini.GenerateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 1)
		assert.Equal(t, "prompt text", req.Contents[0].Parts[0].Text)
		require.NotNil(t, req.SystemInstruction)
		assert.Equal(t, "system text", req.SystemInstruction.Parts[0].Text)
		require.NotNil(t, req.GenerationConfig)
		assert.Equal(t, 512, req.GenerationConfig.MaxOutputTokens)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(gemini.GenerateContentResponse{
			Candidates: []gemini.Candidate{
				{
					Content:      gemini.Content{Parts: []gemini.Part{{Text: "generated reply"}}, Role: "model"},
					FinishReason: "STOP",
				},
			},
			UsageMetadata: gemini.UsageMetadata{PromptTokenCount: 5, CandidatesTokenCount: 9},
		})
	}))
	defer server.Close()

	client := gemini.NewClient(testEndpointConfig(), testHTTPConfig())
	client.SetBaseURL(server.URL)

	text, err := client.Complete(context.Background(), analyze.CompletionRequest{
		System:      "system text",
		Prompt:      "prompt text",
		Temperature: 0.1,
		MaxTokens:   512,
	})

	require.NoError(t, err)
	assert.Equal(t, "generated reply", text)
}

func TestClient_Complete_SafetyBlocked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(gemini.GenerateContentResponse{
			Candidates: []gemini.Candidate{{FinishReason: "SAFETY"}},
		})
	}))
	defer server.Close()

	client := gemini.NewClient(testEndpointConfig(), testHTTPConfig())
	client.SetBaseURL(server.URL)

	_, err := client.Complete(context.Background(), analyze.CompletionRequest{Prompt: "p"})

	require.Error(t, err)
	var httpErr *llmhttp.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, llmhttp.ErrTypeContentFiltered, httpErr.Type)
	assert.False(t, httpErr.Retryable)
}

func TestClient_Complete_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(gemini.GenerateContentResponse{})
	}))
	defer server.Close()

	client := gemini.NewClient(testEndpointConfig(), testHTTPConfig())
	client.SetBaseURL(server.URL)

	_, err := client.Complete(context.Background(), analyze.CompletionRequest{Prompt: "p"})
	assert.Error(t, err)
}

func TestClient_Complete_RateLimitTyped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(gemini.ErrorResponse{
			Error: gemini.ErrorDetail{Code: 429, Message: "quota exceeded", Status: "RESOURCE_EXHAUSTED"},
		})
	}))
	defer server.Close()

	client := gemini.NewClient(testEndpointConfig(), testHTTPConfig())
	client.SetBaseURL(server.URL)

	_, err := client.Complete(context.Background(), analyze.CompletionRequest{Prompt: "p"})

	require.Error(t, err)
	var httpErr *llmhttp.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, llmhttp.ErrTypeRateLimit, httpErr.Type)
	assert.True(t, httpErr.Retryable)
	assert.Contains(t, httpErr.Message, "quota exceeded")
}
