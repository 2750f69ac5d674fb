// Package markdown renders analysis reports as human-readable Markdown files.
package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/FaridSuleymanov/sibyl/internal/domain"
)

type clock func() string

// Writer renders analysis results into Markdown files.
type Writer struct {
	now clock
}

// NewWriter constructs a Markdown writer with a timestamp supplier.
func NewWriter(now clock) *Writer {
	return &Writer{now: now}
}

// Write persists a Markdown artifact to disk and returns its path.
func (w *Writer) Write(ctx context.Context, artifact domain.ReportArtifact) (string, error) {
	if err := os.MkdirAll(artifact.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("analysis_%s_%s.md", sanitise(artifact.Location), w.now())
	path := filepath.Join(artifact.OutputDir, filename)

	content := buildContent(artifact)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}

	return path, nil
}

func buildContent(artifact domain.ReportArtifact) string {
	var builder strings.Builder
	caser := cases.Title(language.English)
	verdict := artifact.Result.Verdict

	builder.WriteString("# Situational Analysis Report\n\n")
	builder.WriteString(fmt.Sprintf("- Query: %s\n", artifact.Query))
	if artifact.Location != "" {
		builder.WriteString(fmt.Sprintf("- Location: %s\n", artifact.Location))
	}
	builder.WriteString(fmt.Sprintf("- Run: %s\n", artifact.RunID))
	builder.WriteString(fmt.Sprintf("- Safety coefficient: %d/100 (%s)\n", verdict.SafetyCoefficient, caser.String(string(verdict.ColorBand))))
	builder.WriteString(fmt.Sprintf("- Escalation risk, next 24h: %d/100\n", verdict.EscalationRisk24h))
	builder.WriteString(fmt.Sprintf("- Dominant threat: %s\n\n", verdict.DominantThreat))

	builder.WriteString("## Executive Summary\n\n")
	builder.WriteString(verdict.ExecutiveSummary)
	builder.WriteString("\n\n")

	if len(verdict.Scenarios) > 0 {
		builder.WriteString("## Scenarios\n\n")
		for _, scenario := range verdict.Scenarios {
			builder.WriteString(fmt.Sprintf("### %s (%d%% likely)\n", scenario.Timeframe, scenario.Probability))
			builder.WriteString(scenario.Description)
			builder.WriteString("\n\n")
			builder.WriteString(fmt.Sprintf("Recommended action: %s\n\n", scenario.RecommendedAction))
		}
	}

	builder.WriteString("## Perspective Analyses\n\n")
	for _, core := range artifact.Result.Cores {
		builder.WriteString(fmt.Sprintf("### %s\n\n", core.Perspective.Title()))
		builder.WriteString(core.Text)
		builder.WriteString("\n\n")
		if core.Err != "" {
			builder.WriteString(fmt.Sprintf("> Degraded: %s\n\n", core.Err))
		}
	}

	builder.WriteString("## Final Verdict\n\n")
	builder.WriteString(verdict.FinalVerdict)
	builder.WriteString("\n")

	if len(artifact.Result.Errors) > 0 {
		builder.WriteString("\n## Degradations\n\n")
		for _, e := range artifact.Result.Errors {
			builder.WriteString(fmt.Sprintf("- %s\n", e))
		}
	}

	return builder.String()
}

func sanitise(value string) string {
	if value == "" {
		return "unspecified"
	}
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, string(filepath.Separator), "-")
	value = strings.ReplaceAll(value, " ", "-")
	return value
}
