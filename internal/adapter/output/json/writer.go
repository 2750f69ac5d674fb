// Package json writes analysis reports to disk as JSON artifacts.
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/FaridSuleymanov/sibyl/internal/domain"
)

// Writer persists analysis results as indented JSON files.
type Writer struct {
	now func() string
}

// NewWriter creates a new JSON writer with a timestamp supplier used in
// directory names.
func NewWriter(now func() string) *Writer {
	return &Writer{now: now}
}

type reportDocument struct {
	RunID       string                `json:"runId"`
	GeneratedAt string                `json:"generatedAt"`
	Query       string                `json:"query"`
	Location    string                `json:"location,omitempty"`
	Result      domain.AnalysisResult `json:"result"`
}

// Write persists an analysis to disk as a JSON file and returns its path.
func (w *Writer) Write(ctx context.Context, artifact domain.ReportArtifact) (string, error) {
	timestamp := w.now()
	outputDir := filepath.Join(artifact.OutputDir, timestamp)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filePath := filepath.Join(outputDir, fmt.Sprintf("analysis-%s.json", artifact.RunID))

	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create json file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	doc := reportDocument{
		RunID:       artifact.RunID,
		GeneratedAt: timestamp,
		Query:       artifact.Query,
		Location:    artifact.Location,
		Result:      artifact.Result,
	}
	if err := encoder.Encode(doc); err != nil {
		return "", fmt.Errorf("failed to encode analysis to json: %w", err)
	}

	return filePath, nil
}
