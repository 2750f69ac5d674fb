package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	adapter "github.com/FaridSuleymanov/sibyl/internal/adapter/store"
	"github.com/FaridSuleymanov/sibyl/internal/domain"
	"github.com/FaridSuleymanov/sibyl/internal/store"
	"github.com/FaridSuleymanov/sibyl/internal/usecase/analyze"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	runs    []store.Run
	outputs []store.CoreOutputRecord
	runErr  error
	closed  bool
}

func (f *fakeStore) CreateRun(ctx context.Context, run store.Run) error {
	if f.runErr != nil {
		return f.runErr
	}
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeStore) GetRun(ctx context.Context, runID string) (store.Run, error) {
	return store.Run{}, errors.New("not implemented")
}

func (f *fakeStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	return f.runs, nil
}

func (f *fakeStore) SaveCoreOutputs(ctx context.Context, outputs []store.CoreOutputRecord) error {
	f.outputs = append(f.outputs, outputs...)
	return nil
}

func (f *fakeStore) GetCoreOutputsByRun(ctx context.Context, runID string) ([]store.CoreOutputRecord, error) {
	return f.outputs, nil
}

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

func sampleResult() domain.AnalysisResult {
	result := domain.AnalysisResult{
		Verdict: domain.SynthesizedVerdict{
			SafetyCoefficient: 81,
			EscalationRisk24h: 10,
			DominantThreat:    "none",
			ColorBand:         domain.ColorGreen,
			ExecutiveSummary:  "All clear.",
			FinalVerdict:      "Proceed.",
		},
		Errors: []string{"strategic core failed validation after 3 attempts: vague"},
	}
	for i, p := range domain.Perspectives() {
		result.Cores[i] = domain.CoreResult{Perspective: p, Text: p.Name() + " text", Attempts: i + 1}
	}
	result.Cores[2].Err = "exhausted"
	return result
}

func TestBridge_SaveRun_FlattensResult(t *testing.T) {
	fake := &fakeStore{}
	bridge := adapter.NewBridge(fake)
	ts := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	err := bridge.SaveRun(context.Background(), analyze.StoreRun{
		RunID:     "run-9",
		Timestamp: ts,
		Query:     "q",
		Location:  "Tbilisi",
		Result:    sampleResult(),
	})

	require.NoError(t, err)
	require.Len(t, fake.runs, 1)
	run := fake.runs[0]
	assert.Equal(t, "run-9", run.RunID)
	assert.Equal(t, 81, run.SafetyCoefficient)
	assert.Equal(t, "green", run.ColorBand)
	assert.Equal(t, 1, run.ErrorCount)

	require.Len(t, fake.outputs, 3)
	assert.Equal(t, "tactical", fake.outputs[0].Perspective)
	assert.Equal(t, 0, fake.outputs[0].Position)
	assert.Equal(t, "strategic", fake.outputs[2].Perspective)
	assert.Equal(t, "exhausted", fake.outputs[2].Error)
}

func TestBridge_SaveRun_PropagatesError(t *testing.T) {
	fake := &fakeStore{runErr: errors.New("disk full")}
	bridge := adapter.NewBridge(fake)

	err := bridge.SaveRun(context.Background(), analyze.StoreRun{RunID: "r", Result: sampleResult()})
	assert.ErrorContains(t, err, "disk full")
	assert.Empty(t, fake.outputs, "core outputs are not written when the run row fails")
}

func TestBridge_Close(t *testing.T) {
	fake := &fakeStore{}
	bridge := adapter.NewBridge(fake)

	require.NoError(t, bridge.Close())
	assert.True(t, fake.closed)
}
