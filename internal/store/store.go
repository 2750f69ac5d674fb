package store

import (
	"context"
	"time"
)

// Store defines the persistence layer interface for analysis run history.
type Store interface {
	// Run management
	CreateRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, runID string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// Per-perspective output persistence
	SaveCoreOutputs(ctx context.Context, outputs []CoreOutputRecord) error
	GetCoreOutputsByRun(ctx context.Context, runID string) ([]CoreOutputRecord, error)

	// Utility
	Close() error
}

// Run represents one completed analysis with its synthesized verdict.
type Run struct {
	RunID             string
	Timestamp         time.Time
	Query             string
	Location          string
	SafetyCoefficient int
	EscalationRisk24h int
	ColorBand         string
	DominantThreat    string
	ExecutiveSummary  string
	FinalVerdict      string
	ErrorCount        int
}

// CoreOutputRecord stores one perspective core's accepted (or degraded) output.
// Position preserves the pipeline's fixed perspective order.
type CoreOutputRecord struct {
	RunID       string
	Position    int
	Perspective string
	Text        string
	Attempts    int
	Error       string
}
