package domain

// CoreResult is the terminal state of one perspective pipeline.
// Attempts counts generation calls actually made (1..max attempts).
// Err is non-empty exactly when the core either failed terminally or
// exhausted its retries while still failing validation.
type CoreResult struct {
	Perspective Perspective `json:"perspective"`
	Text        string      `json:"text"`
	Attempts    int         `json:"attempts"`
	Err         string      `json:"error,omitempty"`
}

// AnalysisResult is the public output of one analysis request. It is always
// complete: a fully degraded run still carries offline text per core, the
// fallback verdict, and a non-empty error list. A non-empty Errors slice is
// a reduced-confidence signal, not a failure.
type AnalysisResult struct {
	Cores   [PerspectiveCount]CoreResult `json:"cores"`
	Verdict SynthesizedVerdict           `json:"verdict"`
	Errors  []string                     `json:"errors"`
}

// FireSummary aggregates satellite fire detections near the queried area.
type FireSummary struct {
	TotalPoints  int      `json:"totalPoints"`
	ClusterCount int      `json:"clusterCount"`
	HighestPower *float64 `json:"highestPowerValue"`
	Summary      string   `json:"freeTextSummary"`
}

// AirQualitySummary aggregates monitoring-station readings.
type AirQualitySummary struct {
	StationCount   int     `json:"stationCount"`
	PM25Range      *string `json:"pm25RangeText"`
	WorstParameter *string `json:"worstParameterText"`
	Summary        string  `json:"freeTextSummary"`
}

// WebcamSummary aggregates ground-truth camera availability.
type WebcamSummary struct {
	Total       int      `json:"total"`
	ActiveCount int      `json:"activeCount"`
	Categories  []string `json:"categories"`
	Summary     string   `json:"freeTextSummary"`
}

// ConflictSummary aggregates curated (human-reviewed) conflict events.
type ConflictSummary struct {
	TotalEvents int      `json:"totalEvents"`
	Fatalities  int      `json:"fatalities"`
	EventTypes  []string `json:"eventTypes"`
	TimeRange   string   `json:"timeRangeText"`
	Summary     string   `json:"freeTextSummary"`
}

// LiveConflictSummary aggregates real-time media-derived conflict signals.
type LiveConflictSummary struct {
	TotalEvents     int      `json:"totalEvents"`
	GeolocatedCount int      `json:"geolocatedCount"`
	AverageTone     float64  `json:"averageTone"`
	TopSources      []string `json:"topSources"`
	Summary         string   `json:"freeTextSummary"`
}

// EnvironmentalContext is the pre-built situational context supplied by the
// caller. Every sub-field is independently optional. The engine only renders
// it into prompt text; it does not know how it was produced.
type EnvironmentalContext struct {
	Fire         *FireSummary         `json:"fire,omitempty"`
	AirQuality   *AirQualitySummary   `json:"airQuality,omitempty"`
	Webcams      *WebcamSummary       `json:"webcams,omitempty"`
	Conflict     *ConflictSummary     `json:"conflict,omitempty"`
	LiveConflict *LiveConflictSummary `json:"liveConflict,omitempty"`
}

// IsEmpty reports whether no sub-field is present.
func (e *EnvironmentalContext) IsEmpty() bool {
	if e == nil {
		return true
	}
	return e.Fire == nil && e.AirQuality == nil && e.Webcams == nil &&
		e.Conflict == nil && e.LiveConflict == nil
}
