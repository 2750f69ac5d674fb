package domain

// ColorBand is the coarse threat color attached to a verdict. The wire name
// psychoPassColor is kept for compatibility with existing clients.
type ColorBand string

const (
	ColorGreen  ColorBand = "green"
	ColorYellow ColorBand = "yellow"
	ColorOrange ColorBand = "orange"
	ColorRed    ColorBand = "red"
)

// IsValid returns true if c is one of the four recognized bands.
func (c ColorBand) IsValid() bool {
	switch c {
	case ColorGreen, ColorYellow, ColorOrange, ColorRed:
		return true
	default:
		return false
	}
}

// ColorBandFor derives the color band from a safety coefficient (0-100,
// higher is safer). The band is always recomputed from the coefficient after
// synthesis; whatever the model emitted is overwritten.
func ColorBandFor(safetyCoefficient int) ColorBand {
	switch {
	case safetyCoefficient >= 75:
		return ColorGreen
	case safetyCoefficient >= 50:
		return ColorYellow
	case safetyCoefficient >= 25:
		return ColorOrange
	default:
		return ColorRed
	}
}

// Scenario is one projected development inside a verdict.
type Scenario struct {
	Timeframe         string `json:"timeframe"`
	Probability       int    `json:"probability"`
	Description       string `json:"description"`
	RecommendedAction string `json:"recommendedAction"`
}

// SynthesizedVerdict is the structured output of the synthesis phase. It is
// constructed once per analysis, color-corrected, and never mutated after
// that.
type SynthesizedVerdict struct {
	SafetyCoefficient int        `json:"safetyCoefficient"`
	EscalationRisk24h int        `json:"escalationRisk24h"`
	DominantThreat    string     `json:"dominantThreat"`
	ColorBand         ColorBand  `json:"psychoPassColor"`
	ExecutiveSummary  string     `json:"executiveSummary"`
	Scenarios         []Scenario `json:"scenarios"`
	FinalVerdict      string     `json:"finalVerdict"`
}

// FallbackVerdict is the fixed verdict substituted when synthesis exhausts
// every attempt. Neutral coefficient, yellow band, no scenarios.
func FallbackVerdict() SynthesizedVerdict {
	return SynthesizedVerdict{
		SafetyCoefficient: 50,
		EscalationRisk24h: 50,
		DominantThreat:    "undetermined",
		ColorBand:         ColorYellow,
		ExecutiveSummary:  "Automated synthesis was unable to produce a reliable verdict from the perspective analyses. Manual review of the individual assessments is required.",
		Scenarios:         []Scenario{},
		FinalVerdict:      "Verdict unavailable; treat the situation with caution and review the perspective analyses manually.",
	}
}
