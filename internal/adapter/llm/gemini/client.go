// Package gemini implements a completion client for Google's Gemini
// generateContent API. It satisfies the engine's Completer port and is the
// default binding for the judge endpoint.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	llmhttp "github.com/FaridSuleymanov/sibyl/internal/adapter/llm/http"
	"github.com/FaridSuleymanov/sibyl/internal/config"
	"github.com/FaridSuleymanov/sibyl/internal/usecase/analyze"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultTimeout = 60 * time.Second
	endpointName   = "gemini"
)

// Client is an HTTP client for the Gemini generateContent API.
type Client struct {
	apiKey    string
	model     string
	baseURL   string
	timeout   time.Duration
	retryConf llmhttp.RetryConfig
	client    *http.Client

	logger  llmhttp.Logger
	metrics llmhttp.Metrics
	pricing llmhttp.Pricing
}

// NewClient creates a Gemini client from an endpoint binding plus the global
// HTTP settings.
func NewClient(ep config.EndpointConfig, httpCfg config.HTTPConfig) *Client {
	timeout := llmhttp.ParseTimeout(ep.Timeout, httpCfg.Timeout, defaultTimeout)

	return &Client{
		apiKey:    ep.APIKey,
		model:     ep.Model,
		baseURL:   defaultBaseURL,
		timeout:   timeout,
		retryConf: llmhttp.BuildRetryConfig(ep, httpCfg),
		client:    &http.Client{Timeout: timeout},
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// SetLogger sets the logger for this client.
func (c *Client) SetLogger(logger llmhttp.Logger) {
	c.logger = logger
}

// SetMetrics sets the metrics tracker for this client.
func (c *Client) SetMetrics(metrics llmhttp.Metrics) {
	c.metrics = metrics
}

// SetPricing sets the pricing calculator for this client.
func (c *Client) SetPricing(pricing llmhttp.Pricing) {
	c.pricing = pricing
}

// Complete sends one completion request to the generateContent API.
func (c *Client) Complete(ctx context.Context, req analyze.CompletionRequest) (string, error) {
	startTime := time.Now()

	if c.logger != nil {
		c.logger.LogRequest(ctx, llmhttp.RequestLog{
			Endpoint:    endpointName,
			Model:       c.model,
			Timestamp:   startTime,
			PromptChars: len(req.Prompt),
			APIKey:      c.apiKey,
		})
	}
	if c.metrics != nil {
		c.metrics.RecordRequest(endpointName, c.model)
	}

	reqBody := GenerateContentRequest{
		Contents: []Content{
			{Parts: []Part{{Text: req.Prompt}}, Role: "user"},
		},
	}
	if req.System != "" {
		reqBody.SystemInstruction = &Content{Parts: []Part{{Text: req.System}}}
	}
	if req.Temperature > 0 || req.MaxTokens > 0 {
		reqBody.GenerationConfig = &GenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
			CandidateCount:  1,
		}
	}
	reqBody.SafetySettings = []SafetySetting{
		{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_ONLY_HIGH"},
		{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_ONLY_HIGH"},
		{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_ONLY_HIGH"},
		{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_ONLY_HIGH"},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	var resp *http.Response
	err = llmhttp.RetryWithBackoff(ctx, func(ctx context.Context) error {
		retryReq, reqErr := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
		if reqErr != nil {
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeUnknown,
				Message:   reqErr.Error(),
				Retryable: false,
				Endpoint:  endpointName,
			}
		}

		retryReq.Header.Set("Content-Type", "application/json")

		var callErr error
		resp, callErr = c.client.Do(retryReq)
		if callErr != nil {
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeTimeout,
				Message:   callErr.Error(),
				Retryable: false,
				Endpoint:  endpointName,
			}
		}

		if resp.StatusCode >= 400 {
			bodyBytes, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return handleErrorResponse(resp.StatusCode, bodyBytes)
		}
		return nil
	}, c.retryConf)

	duration := time.Since(startTime)

	if err != nil {
		c.observeError(ctx, err, duration)
		return "", err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	var genResp GenerateContentResponse
	if err := json.Unmarshal(bodyBytes, &genResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(genResp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	candidate := genResp.Candidates[0]

	if candidate.FinishReason == "SAFETY" {
		return "", &llmhttp.Error{
			Type:      llmhttp.ErrTypeContentFiltered,
			Message:   "content blocked by safety filters",
			Retryable: false,
			Endpoint:  endpointName,
		}
	}

	var textParts []string
	for _, part := range candidate.Content.Parts {
		textParts = append(textParts, part.Text)
	}
	text := strings.Join(textParts, "")

	c.observeResponse(ctx, text, genResp.UsageMetadata.PromptTokenCount, genResp.UsageMetadata.CandidatesTokenCount, duration)
	return text, nil
}

func (c *Client) observeResponse(ctx context.Context, text string, tokensIn, tokensOut int, duration time.Duration) {
	var cost float64
	if c.pricing != nil {
		cost = c.pricing.GetCost(endpointName, c.model, tokensIn, tokensOut)
	}
	if c.logger != nil {
		c.logger.LogResponse(ctx, llmhttp.ResponseLog{
			Endpoint:  endpointName,
			Model:     c.model,
			Timestamp: time.Now(),
			Duration:  duration,
			TokensIn:  tokensIn,
			TokensOut: tokensOut,
			Cost:      cost,
			Response:  text,
		})
	}
	if c.metrics != nil {
		c.metrics.RecordDuration(endpointName, c.model, duration)
		c.metrics.RecordTokens(endpointName, c.model, tokensIn, tokensOut)
		c.metrics.RecordCost(endpointName, c.model, cost)
	}
}

func (c *Client) observeError(ctx context.Context, err error, duration time.Duration) {
	var httpErr *llmhttp.Error
	if !errors.As(err, &httpErr) {
		return
	}
	if c.logger != nil {
		c.logger.LogError(ctx, llmhttp.ErrorLog{
			Endpoint:   endpointName,
			Model:      c.model,
			Timestamp:  time.Now(),
			Duration:   duration,
			Error:      err,
			ErrorType:  httpErr.Type,
			StatusCode: httpErr.StatusCode,
			Retryable:  httpErr.Retryable,
		})
	}
	if c.metrics != nil {
		c.metrics.RecordError(endpointName, c.model, httpErr.Type)
	}
}

// handleErrorResponse maps HTTP status codes to typed errors.
func handleErrorResponse(statusCode int, body []byte) error {
	var errResp ErrorResponse
	message := fmt.Sprintf("HTTP %d", statusCode)
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeAuthentication,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Endpoint:   endpointName,
		}
	case http.StatusTooManyRequests:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeRateLimit,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
			Endpoint:   endpointName,
		}
	case http.StatusNotFound:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeModelNotFound,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Endpoint:   endpointName,
		}
	case http.StatusBadRequest:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeInvalidRequest,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Endpoint:   endpointName,
		}
	case http.StatusServiceUnavailable, http.StatusInternalServerError:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeServiceUnavailable,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
			Endpoint:   endpointName,
		}
	default:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Endpoint:   endpointName,
		}
	}
}
