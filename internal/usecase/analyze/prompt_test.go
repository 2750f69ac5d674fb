package analyze_test

import (
	"strings"
	"testing"

	"github.com/FaridSuleymanov/sibyl/internal/domain"
	"github.com/FaridSuleymanov/sibyl/internal/usecase/analyze"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }

func fullContext() *domain.EnvironmentalContext {
	return &domain.EnvironmentalContext{
		Fire: &domain.FireSummary{
			TotalPoints: 12, ClusterCount: 3, HighestPower: floatPtr(85.2),
			Summary: "Active fire front north of the city.",
		},
		AirQuality: &domain.AirQualitySummary{
			StationCount: 4, PM25Range: strPtr("40-180 µg/m³"), WorstParameter: strPtr("PM2.5"),
			Summary: "Smoke is degrading air quality.",
		},
		Webcams: &domain.WebcamSummary{
			Total: 10, ActiveCount: 6, Categories: []string{"traffic", "city"},
			Summary: "Roads visibly congested.",
		},
		Conflict: &domain.ConflictSummary{
			TotalEvents: 7, Fatalities: 2, EventTypes: []string{"protests"}, TimeRange: "last 30 days",
			Summary: "Sporadic unrest downtown.",
		},
		LiveConflict: &domain.LiveConflictSummary{
			TotalEvents: 21, GeolocatedCount: 14, AverageTone: -4.2, TopSources: []string{"reuters.com"},
			Summary: "Coverage tone sharply negative.",
		},
	}
}

func TestBuildPrompt_BareQuery(t *testing.T) {
	assert.Equal(t, "Assess evacuation risk", analyze.BuildPrompt("Assess evacuation risk", "", nil))
	assert.Equal(t, "q", analyze.BuildPrompt("q", "", &domain.EnvironmentalContext{}))
}

func TestBuildPrompt_FixedLineOrder(t *testing.T) {
	prompt := analyze.BuildPrompt("Assess evacuation risk", "Tbilisi", fullContext())

	idxLocation := strings.Index(prompt, "[Location:")
	idxFire := strings.Index(prompt, "[Fire activity:")
	idxAir := strings.Index(prompt, "[Air quality:")
	idxCams := strings.Index(prompt, "[Webcams:")
	idxConflict := strings.Index(prompt, "[Conflict events (curated):")
	idxLive := strings.Index(prompt, "[Conflict signals (real-time):")
	idxQuery := strings.Index(prompt, "Assess evacuation risk")

	for name, idx := range map[string]int{
		"location": idxLocation, "fire": idxFire, "air": idxAir,
		"webcams": idxCams, "conflict": idxConflict, "live": idxLive,
	} {
		require.GreaterOrEqual(t, idx, 0, "%s line missing", name)
	}
	assert.True(t, idxLocation < idxFire && idxFire < idxAir && idxAir < idxCams &&
		idxCams < idxConflict && idxConflict < idxLive && idxLive < idxQuery,
		"prefix lines must keep their fixed order ahead of the query")

	assert.Contains(t, prompt, "\n\n", "sections are blank-line separated")
}

func TestBuildPrompt_OrderStableForSubsets(t *testing.T) {
	env := &domain.EnvironmentalContext{
		AirQuality:   fullContext().AirQuality,
		LiveConflict: fullContext().LiveConflict,
	}

	prompt := analyze.BuildPrompt("q", "", env)

	idxAir := strings.Index(prompt, "[Air quality:")
	idxLive := strings.Index(prompt, "[Conflict signals (real-time):")
	require.GreaterOrEqual(t, idxAir, 0)
	require.GreaterOrEqual(t, idxLive, 0)
	assert.Less(t, idxAir, idxLive)
	assert.NotContains(t, prompt, "[Location:")
	assert.NotContains(t, prompt, "[Fire activity:")
}

func TestBuildTranscript_DeclarationOrderAndAttempts(t *testing.T) {
	var cores [domain.PerspectiveCount]domain.CoreResult
	for i, p := range domain.Perspectives() {
		cores[i] = domain.CoreResult{Perspective: p, Text: p.Name() + " analysis", Attempts: i + 1}
	}

	transcript := analyze.BuildTranscript(cores, "the query", "Tbilisi", nil)

	idxTac := strings.Index(transcript, "tactical analysis")
	idxEnv := strings.Index(transcript, "environmental analysis")
	idxStr := strings.Index(transcript, "strategic analysis")
	assert.True(t, idxTac < idxEnv && idxEnv < idxStr)
	assert.Contains(t, transcript, "the query")
	assert.Contains(t, transcript, "[Location: Tbilisi]")
	assert.Contains(t, transcript, "3 attempt(s)")
}

func TestExtractJSON_FenceStrippingIdempotence(t *testing.T) {
	bare := `{"safetyCoefficient":80,"psychoPassColor":"green"}`

	assert.Equal(t, bare, analyze.ExtractJSON(bare))
	assert.Equal(t, bare, analyze.ExtractJSON("```json\n"+bare+"\n```"))
	assert.Equal(t, bare, analyze.ExtractJSON("```JSON\n"+bare+"\n```"))
	assert.Equal(t, bare, analyze.ExtractJSON("```\n"+bare+"\n```"))
	assert.Equal(t, bare, analyze.ExtractJSON("  \n"+bare+"\n  "))
}
