package analyze

import (
	"context"
	"time"

	"github.com/FaridSuleymanov/sibyl/internal/domain"
)

// CompletionRequest is the payload sent to any model endpoint.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Completer is the outbound port for a single model endpoint. Perspective
// cores, the judge, and the synthesis model are all bound through it, so
// tests can substitute fakes without touching process-global state.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Logger is the inbound logging port for the engine. Both methods accept
// structured fields; implementations decide formatting.
type Logger interface {
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
}

// Store is the outbound port for the optional analysis-history store.
// Every failure behind it is absorbed with a warning; history is never
// allowed to break an analysis.
type Store interface {
	SaveRun(ctx context.Context, run StoreRun) error
	Close() error
}

// StoreRun is one analysis run for persistence.
type StoreRun struct {
	RunID     string
	Timestamp time.Time
	Query     string
	Location  string
	Result    domain.AnalysisResult
}
