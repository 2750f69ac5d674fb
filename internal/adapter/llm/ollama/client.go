// Package ollama implements a completion client for a local Ollama server.
// It satisfies the engine's Completer port. Unlike the hosted providers it
// needs no API key; the server address comes from the endpoint's baseUrl.
package ollama

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
	defaultBaseURL = "http://localhost:11434"
	// Local models generate far slower than hosted APIs.
	defaultTimeout = 120 * time.Second
	endpointName   = "ollama"
)

// Client is an HTTP client for the Ollama generate API.
type Client struct {
	model     string
	baseURL   string
	timeout   time.Duration
	retryConf llmhttp.RetryConfig
	client    *http.Client

	logger  llmhttp.Logger
	metrics llmhttp.Metrics
	pricing llmhttp.Pricing
}

// NewClient creates an Ollama client from an endpoint binding plus the global
// HTTP settings.
func NewClient(ep config.EndpointConfig, httpCfg config.HTTPConfig) *Client {
	timeout := llmhttp.ParseTimeout(ep.Timeout, httpCfg.Timeout, defaultTimeout)

	baseURL := ep.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		model:     ep.Model,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
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

// Complete sends one non-streaming generate request and returns the reply
// text. The system instruction travels in the request's system field.
func (c *Client) Complete(ctx context.Context, req analyze.CompletionRequest) (string, error) {
	startTime := time.Now()

	if c.logger != nil {
		c.logger.LogRequest(ctx, llmhttp.RequestLog{
			Endpoint:    endpointName,
			Model:       c.model,
			Timestamp:   startTime,
			PromptChars: len(req.Prompt),
		})
	}
	if c.metrics != nil {
		c.metrics.RecordRequest(endpointName, c.model)
	}

	reqBody := GenerateRequest{
		Model:  c.model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: false,
	}
	options := map[string]interface{}{}
	if req.Temperature > 0 {
		options["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	if len(options) > 0 {
		reqBody.Options = options
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/api/generate"

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
			if strings.Contains(callErr.Error(), "connection refused") {
				return &llmhttp.Error{
					Type:      llmhttp.ErrTypeServiceUnavailable,
					Message:   "Ollama server not reachable at " + c.baseURL + ". Is Ollama running? Try: ollama serve",
					Retryable: false,
					Endpoint:  endpointName,
				}
			}
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
			return c.handleErrorResponse(resp.StatusCode, bodyBytes)
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

	var genResp GenerateResponse
	if err := json.Unmarshal(bodyBytes, &genResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if !genResp.Done {
		return "", fmt.Errorf("incomplete response from model")
	}
	if genResp.Response == "" {
		return "", fmt.Errorf("no content in response")
	}

	c.observeResponse(ctx, genResp.Response, genResp.PromptEvalCount, genResp.EvalCount, duration)
	return genResp.Response, nil
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
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var errResp ErrorResponse
	message := fmt.Sprintf("HTTP %d", statusCode)
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		message = errResp.Error
	}

	switch statusCode {
	case http.StatusNotFound:
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeModelNotFound,
			Message:    fmt.Sprintf("model %q not found. Pull it with: ollama pull %s", c.model, c.model),
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
