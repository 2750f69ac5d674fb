// Package observability bridges the shared structured-logging infrastructure
// to the engine's narrower logging port.
package observability

import (
	"context"

	llmhttp "github.com/FaridSuleymanov/sibyl/internal/adapter/llm/http"
	"github.com/FaridSuleymanov/sibyl/internal/usecase/analyze"
)

// EngineLogger adapts llmhttp.Logger to the analyze.Logger interface so the
// engine logs through the same infrastructure as the model clients.
type EngineLogger struct {
	logger llmhttp.Logger
}

// NewEngineLogger creates a new engine logger adapter.
func NewEngineLogger(logger llmhttp.Logger) analyze.Logger {
	return &EngineLogger{logger: logger}
}

// LogWarning logs a warning message with structured fields.
func (l *EngineLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	l.logger.LogWarning(ctx, message, fields)
}

// LogInfo logs an informational message with structured fields.
func (l *EngineLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	l.logger.LogInfo(ctx, message, fields)
}
