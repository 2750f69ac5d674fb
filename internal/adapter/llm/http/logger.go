package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// Logger provides structured logging for model API calls and engine events.
type Logger interface {
	// LogRequest logs an outgoing API request (API key redacted).
	LogRequest(ctx context.Context, req RequestLog)

	// LogResponse logs an API response with timing and token info.
	LogResponse(ctx context.Context, resp ResponseLog)

	// LogError logs an API error.
	LogError(ctx context.Context, err ErrorLog)

	// LogWarning logs an absorbed failure with structured fields.
	LogWarning(ctx context.Context, message string, fields map[string]interface{})

	// LogInfo logs an informational event with structured fields.
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
}

// RequestLog describes an outgoing completion request.
type RequestLog struct {
	Endpoint    string // which call: perspective name, "judge", "synthesis"
	Model       string
	Timestamp   time.Time
	PromptChars int
	APIKey      string // redacted to last 4 chars before output
}

// ResponseLog describes a completed call.
type ResponseLog struct {
	Endpoint  string
	Model     string
	Timestamp time.Time
	Duration  time.Duration
	TokensIn  int
	TokensOut int
	Cost      float64
	Response  string // full response text; only a truncated preview is ever logged
}

// ErrorLog describes a failed call.
type ErrorLog struct {
	Endpoint   string
	Model      string
	Timestamp  time.Time
	Duration   time.Duration
	Error      error
	ErrorType  ErrorType
	StatusCode int
	Retryable  bool
}

// LogLevel gates what DefaultLogger emits.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelError
)

// LogFormat selects human or machine output.
type LogFormat int

const (
	LogFormatHuman LogFormat = iota
	LogFormatJSON
)

// DefaultLogger writes structured logs via the standard logger.
type DefaultLogger struct {
	level      LogLevel
	format     LogFormat
	redactKeys bool
}

// NewDefaultLogger creates a logger with the given level, format, and
// API-key redaction setting.
func NewDefaultLogger(level LogLevel, format LogFormat, redactKeys bool) *DefaultLogger {
	return &DefaultLogger{level: level, format: format, redactKeys: redactKeys}
}

// LogRequest logs an API request at debug level.
func (l *DefaultLogger) LogRequest(ctx context.Context, req RequestLog) {
	if l.level > LogLevelDebug {
		return
	}
	key := l.RedactAPIKey(req.APIKey)
	if l.format == LogFormatJSON {
		l.emitJSON(map[string]interface{}{
			"level": "debug", "type": "request", "endpoint": req.Endpoint,
			"model": req.Model, "timestamp": req.Timestamp.Format(time.RFC3339),
			"prompt_chars": req.PromptChars, "api_key": key,
		})
		return
	}
	log.Printf("[DEBUG] %s/%s: request sent (prompt=%d chars, key=%s)",
		req.Endpoint, req.Model, req.PromptChars, key)
}

// LogResponse logs an API response at info level.
func (l *DefaultLogger) LogResponse(ctx context.Context, resp ResponseLog) {
	if l.level > LogLevelInfo {
		return
	}
	if l.format == LogFormatJSON {
		payload := map[string]interface{}{
			"level": "info", "type": "response", "endpoint": resp.Endpoint,
			"model": resp.Model, "timestamp": resp.Timestamp.Format(time.RFC3339),
			"duration_ms": resp.Duration.Milliseconds(),
			"tokens_in":   resp.TokensIn, "tokens_out": resp.TokensOut, "cost": resp.Cost,
		}
		if l.level <= LogLevelDebug && resp.Response != "" {
			payload["response_preview"] = TruncateForLogging(resp.Response)
		}
		l.emitJSON(payload)
		return
	}
	log.Printf("[INFO] %s/%s: response received (duration=%.1fs, tokens=%d/%d, cost=$%.4f)",
		resp.Endpoint, resp.Model, resp.Duration.Seconds(), resp.TokensIn, resp.TokensOut, resp.Cost)
	if l.level <= LogLevelDebug && resp.Response != "" {
		log.Printf("[DEBUG] %s/%s: response preview: %s",
			resp.Endpoint, resp.Model, TruncateForLogging(resp.Response))
	}
}

// LogError logs an API error.
func (l *DefaultLogger) LogError(ctx context.Context, e ErrorLog) {
	if l.format == LogFormatJSON {
		l.emitJSON(map[string]interface{}{
			"level": "error", "type": "error", "endpoint": e.Endpoint,
			"model": e.Model, "timestamp": e.Timestamp.Format(time.RFC3339),
			"duration_ms": e.Duration.Milliseconds(), "error": e.Error.Error(),
			"error_type": e.ErrorType.String(), "status_code": e.StatusCode,
			"retryable": e.Retryable,
		})
		return
	}
	retryable := "non-retryable"
	if e.Retryable {
		retryable = "retryable"
	}
	log.Printf("[ERROR] %s/%s: call failed (status=%d, %s): %v",
		e.Endpoint, e.Model, e.StatusCode, retryable, e.Error)
}

// LogWarning logs an absorbed failure.
func (l *DefaultLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	if l.format == LogFormatJSON {
		payload := map[string]interface{}{"level": "warning", "message": message}
		for k, v := range fields {
			payload[k] = v
		}
		l.emitJSON(payload)
		return
	}
	log.Printf("[WARN] %s %s", message, formatFields(fields))
}

// LogInfo logs an informational event.
func (l *DefaultLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	if l.format == LogFormatJSON {
		payload := map[string]interface{}{"level": "info", "message": message}
		for k, v := range fields {
			payload[k] = v
		}
		l.emitJSON(payload)
		return
	}
	log.Printf("[INFO] %s %s", message, formatFields(fields))
}

// RedactAPIKey keeps only the last 4 characters of a key.
func (l *DefaultLogger) RedactAPIKey(key string) string {
	if !l.redactKeys {
		return key
	}
	if len(key) <= 4 {
		return "[REDACTED]"
	}
	return fmt.Sprintf("[REDACTED-%s]", key[len(key)-4:])
}

func (l *DefaultLogger) emitJSON(payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[ERROR] failed to marshal log entry: %v", err)
		return
	}
	log.Print(string(data))
}

func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	out := "("
	first := true
	for k, v := range fields {
		if !first {
			out += ", "
		}
		out += fmt.Sprintf("%s=%v", k, v)
		first = false
	}
	return out + ")"
}
