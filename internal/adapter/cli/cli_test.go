package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/FaridSuleymanov/sibyl/internal/adapter/cli"
	"github.com/FaridSuleymanov/sibyl/internal/domain"
	"github.com/FaridSuleymanov/sibyl/internal/store"
	"github.com/FaridSuleymanov/sibyl/internal/usecase/analyze"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyzer struct {
	req    analyze.Request
	result domain.AnalysisResult
	err    error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req analyze.Request) (domain.AnalysisResult, error) {
	f.req = req
	return f.result, f.err
}

type fakeWriter struct {
	artifact domain.ReportArtifact
	calls    int
	path     string
}

func (f *fakeWriter) Write(ctx context.Context, artifact domain.ReportArtifact) (string, error) {
	f.artifact = artifact
	f.calls++
	return f.path, nil
}

type fakeHistory struct {
	runs  []store.Run
	limit int
	err   error
}

func (f *fakeHistory) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	f.limit = limit
	return f.runs, f.err
}

func sampleResult() domain.AnalysisResult {
	result := domain.AnalysisResult{
		Verdict: domain.SynthesizedVerdict{
			SafetyCoefficient: 62,
			EscalationRisk24h: 40,
			DominantThreat:    "civil unrest",
			ColorBand:         domain.ColorYellow,
			ExecutiveSummary:  "Tense but stable.",
			Scenarios:         []domain.Scenario{},
			FinalVerdict:      "Stay alert.",
		},
		Errors: []string{},
	}
	for i, p := range domain.Perspectives() {
		result.Cores[i] = domain.CoreResult{Perspective: p, Text: "t", Attempts: 1}
	}
	return result
}

func runCommand(t *testing.T, deps cli.Dependencies, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	deps.Args = cli.Arguments{OutWriter: &out, ErrWriter: &errOut}
	root := cli.NewRootCommand(deps)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestAnalyzeCommand_PrintsSummaryAndWritesReport(t *testing.T) {
	analyzer := &fakeAnalyzer{result: sampleResult()}
	md := &fakeWriter{path: "/tmp/report.md"}

	out, _, err := runCommand(t, cli.Dependencies{
		Analyzer:       analyzer,
		MarkdownWriter: md,
		JSONWriter:     &fakeWriter{},
	}, "analyze", "Is", "downtown", "safe?", "--location", "Tbilisi")

	require.NoError(t, err)
	assert.Equal(t, "Is downtown safe?", analyzer.req.Query)
	assert.Equal(t, "Tbilisi", analyzer.req.Location)
	assert.Nil(t, analyzer.req.Env)

	assert.Contains(t, out, "Safety coefficient: 62/100 [yellow]")
	assert.Contains(t, out, "Stay alert.")
	assert.Contains(t, out, "Report written to /tmp/report.md")

	assert.Equal(t, 1, md.calls)
	assert.Equal(t, "Is downtown safe?", md.artifact.Query)
	assert.NotEmpty(t, md.artifact.RunID)
}

func TestAnalyzeCommand_FormatBoth(t *testing.T) {
	jsonW := &fakeWriter{path: "/tmp/report.json"}
	md := &fakeWriter{path: "/tmp/report.md"}

	_, _, err := runCommand(t, cli.Dependencies{
		Analyzer:       &fakeAnalyzer{result: sampleResult()},
		JSONWriter:     jsonW,
		MarkdownWriter: md,
	}, "analyze", "q", "--format", "both")

	require.NoError(t, err)
	assert.Equal(t, 1, jsonW.calls)
	assert.Equal(t, 1, md.calls)
}

func TestAnalyzeCommand_FormatNone(t *testing.T) {
	md := &fakeWriter{}

	_, _, err := runCommand(t, cli.Dependencies{
		Analyzer:       &fakeAnalyzer{result: sampleResult()},
		MarkdownWriter: md,
		JSONWriter:     &fakeWriter{},
	}, "analyze", "q", "--format", "none")

	require.NoError(t, err)
	assert.Equal(t, 0, md.calls)
}

func TestAnalyzeCommand_UnknownFormat(t *testing.T) {
	_, _, err := runCommand(t, cli.Dependencies{
		Analyzer:       &fakeAnalyzer{result: sampleResult()},
		MarkdownWriter: &fakeWriter{},
		JSONWriter:     &fakeWriter{},
	}, "analyze", "q", "--format", "pdf")

	assert.ErrorContains(t, err, "unknown format")
}

func TestAnalyzeCommand_LoadsEnvContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "env.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"fire":{"totalPoints":12,"clusterCount":2,"freeTextSummary":"two clusters"}}`), 0o644))

	analyzer := &fakeAnalyzer{result: sampleResult()}
	_, _, err := runCommand(t, cli.Dependencies{
		Analyzer:       analyzer,
		MarkdownWriter: &fakeWriter{},
		JSONWriter:     &fakeWriter{},
	}, "analyze", "q", "--env-context", path, "--format", "none")

	require.NoError(t, err)
	require.NotNil(t, analyzer.req.Env)
	require.NotNil(t, analyzer.req.Env.Fire)
	assert.Equal(t, 12, analyzer.req.Env.Fire.TotalPoints)
}

func TestAnalyzeCommand_BadEnvContextFile(t *testing.T) {
	_, _, err := runCommand(t, cli.Dependencies{
		Analyzer:       &fakeAnalyzer{result: sampleResult()},
		MarkdownWriter: &fakeWriter{},
		JSONWriter:     &fakeWriter{},
	}, "analyze", "q", "--env-context", "/no/such/file.json")

	assert.ErrorContains(t, err, "read env context")
}

func TestAnalyzeCommand_DegradationsListed(t *testing.T) {
	result := sampleResult()
	result.Errors = []string{"tactical core generation failed: connection refused"}

	out, _, err := runCommand(t, cli.Dependencies{
		Analyzer:       &fakeAnalyzer{result: result},
		MarkdownWriter: &fakeWriter{},
		JSONWriter:     &fakeWriter{},
	}, "analyze", "q", "--format", "none")

	require.NoError(t, err)
	assert.Contains(t, out, "Degradations (1):")
	assert.Contains(t, out, "connection refused")
}

func TestAnalyzeCommand_AnalyzerError(t *testing.T) {
	_, _, err := runCommand(t, cli.Dependencies{
		Analyzer:       &fakeAnalyzer{err: errors.New("query must not be empty")},
		MarkdownWriter: &fakeWriter{},
		JSONWriter:     &fakeWriter{},
	}, "analyze", " ")

	assert.ErrorContains(t, err, "query must not be empty")
}

func TestHistoryCommand_ListsRuns(t *testing.T) {
	history := &fakeHistory{runs: []store.Run{
		{
			RunID:             "0123456789abcdef",
			Timestamp:         time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
			Query:             "Is downtown safe?",
			SafetyCoefficient: 62,
			ColorBand:         "yellow",
		},
	}}

	out, _, err := runCommand(t, cli.Dependencies{
		Analyzer: &fakeAnalyzer{},
		History:  history,
	}, "history", "--limit", "5")

	require.NoError(t, err)
	assert.Equal(t, 5, history.limit)
	assert.Contains(t, out, "01234567")
	assert.Contains(t, out, "62/100")
	assert.Contains(t, out, "Is downtown safe?")
}

func TestHistoryCommand_Empty(t *testing.T) {
	out, _, err := runCommand(t, cli.Dependencies{
		Analyzer: &fakeAnalyzer{},
		History:  &fakeHistory{},
	}, "history")

	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestHistoryCommand_StoreDisabled(t *testing.T) {
	_, _, err := runCommand(t, cli.Dependencies{
		Analyzer: &fakeAnalyzer{},
	}, "history")

	assert.ErrorContains(t, err, "history is disabled")
}

func TestRootCommand_Version(t *testing.T) {
	out, _, err := runCommand(t, cli.Dependencies{
		Analyzer: &fakeAnalyzer{},
		Version:  "v1.2.3",
	}, "--version")

	assert.ErrorIs(t, err, cli.ErrVersionRequested)
	assert.Contains(t, out, "v1.2.3")
}

func TestAnalyzeCommand_PrintsCostLine(t *testing.T) {
	out, _, err := runCommand(t, cli.Dependencies{
		Analyzer:       &fakeAnalyzer{result: sampleResult()},
		MarkdownWriter: &fakeWriter{},
		JSONWriter:     &fakeWriter{},
		TotalCost:      func() float64 { return 0.0312 },
	}, "analyze", "q", "--format", "none")

	require.NoError(t, err)
	assert.Contains(t, out, "Estimated model cost: $0.0312")
}

func TestAnalyzeCommand_NoCostLineWhenZero(t *testing.T) {
	out, _, err := runCommand(t, cli.Dependencies{
		Analyzer:       &fakeAnalyzer{result: sampleResult()},
		MarkdownWriter: &fakeWriter{},
		JSONWriter:     &fakeWriter{},
		TotalCost:      func() float64 { return 0 },
	}, "analyze", "q", "--format", "none")

	require.NoError(t, err)
	assert.NotContains(t, out, "Estimated model cost")
}
