// Package store adapts the persistence layer to the engine's history port.
package store

import (
	"context"

	"github.com/FaridSuleymanov/sibyl/internal/store"
	"github.com/FaridSuleymanov/sibyl/internal/usecase/analyze"
)

// Bridge adapts store.Store to the analyze.Store interface.
// This avoids circular dependencies between packages.
type Bridge struct {
	store store.Store
}

// NewBridge creates a new store adapter.
func NewBridge(s store.Store) *Bridge {
	return &Bridge{store: s}
}

// SaveRun flattens one analysis result into a run row plus one core-output
// row per perspective.
func (b *Bridge) SaveRun(ctx context.Context, run analyze.StoreRun) error {
	verdict := run.Result.Verdict

	storeRun := store.Run{
		RunID:             run.RunID,
		Timestamp:         run.Timestamp,
		Query:             run.Query,
		Location:          run.Location,
		SafetyCoefficient: verdict.SafetyCoefficient,
		EscalationRisk24h: verdict.EscalationRisk24h,
		ColorBand:         string(verdict.ColorBand),
		DominantThreat:    verdict.DominantThreat,
		ExecutiveSummary:  verdict.ExecutiveSummary,
		FinalVerdict:      verdict.FinalVerdict,
		ErrorCount:        len(run.Result.Errors),
	}
	if err := b.store.CreateRun(ctx, storeRun); err != nil {
		return err
	}

	outputs := make([]store.CoreOutputRecord, 0, len(run.Result.Cores))
	for i, core := range run.Result.Cores {
		outputs = append(outputs, store.CoreOutputRecord{
			RunID:       run.RunID,
			Position:    i,
			Perspective: core.Perspective.Name(),
			Text:        core.Text,
			Attempts:    core.Attempts,
			Error:       core.Err,
		})
	}
	return b.store.SaveCoreOutputs(ctx, outputs)
}

// Close closes the underlying store.
func (b *Bridge) Close() error {
	return b.store.Close()
}
