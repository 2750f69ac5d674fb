package domain

// ReportArtifact bundles one analysis result with the metadata a report
// writer needs to place it on disk.
type ReportArtifact struct {
	OutputDir string
	RunID     string
	Query     string
	Location  string
	Result    AnalysisResult
}
