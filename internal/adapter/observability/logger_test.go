package observability_test

import (
	"bytes"
	"context"
	"log"
	"os"
	"testing"

	llmhttp "github.com/FaridSuleymanov/sibyl/internal/adapter/llm/http"
	"github.com/FaridSuleymanov/sibyl/internal/adapter/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineLogger(t *testing.T) {
	llmLogger := llmhttp.NewDefaultLogger(llmhttp.LogLevelInfo, llmhttp.LogFormatHuman, true)
	engineLogger := observability.NewEngineLogger(llmLogger)

	require.NotNil(t, engineLogger)
}

func TestEngineLogger_LogWarning(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	llmLogger := llmhttp.NewDefaultLogger(llmhttp.LogLevelInfo, llmhttp.LogFormatHuman, true)
	engineLogger := observability.NewEngineLogger(llmLogger)

	ctx := context.Background()
	engineLogger.LogWarning(ctx, "failed to save analysis run", map[string]interface{}{
		"runID": "run-123",
		"error": "database connection failed",
	})

	output := buf.String()
	assert.Contains(t, output, "[WARN]")
	assert.Contains(t, output, "failed to save analysis run")
	assert.Contains(t, output, "runID=run-123")
	assert.Contains(t, output, "error=database connection failed")
}

func TestEngineLogger_LogInfo(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	llmLogger := llmhttp.NewDefaultLogger(llmhttp.LogLevelInfo, llmhttp.LogFormatHuman, true)
	engineLogger := observability.NewEngineLogger(llmLogger)

	ctx := context.Background()
	engineLogger.LogInfo(ctx, "core output rejected", map[string]interface{}{
		"perspective": "tactical",
		"attempt":     2,
	})

	output := buf.String()
	assert.Contains(t, output, "[INFO]")
	assert.Contains(t, output, "core output rejected")
	assert.Contains(t, output, "perspective=tactical")
	assert.Contains(t, output, "attempt=2")
}
