package analyze

import (
	"fmt"
	"strings"

	"github.com/FaridSuleymanov/sibyl/internal/domain"
)

// BuildPrompt renders the optional location and environmental context into
// bracketed prefix lines ahead of the raw query. Pure function; the line
// order is fixed regardless of which sub-fields are present, so prompts stay
// deterministic for identical inputs.
func BuildPrompt(query, location string, env *domain.EnvironmentalContext) string {
	lines := contextLines(location, env)
	if len(lines) == 0 {
		return query
	}
	return strings.Join(append(lines, query), "\n\n")
}

func contextLines(location string, env *domain.EnvironmentalContext) []string {
	var lines []string

	if loc := strings.TrimSpace(location); loc != "" {
		lines = append(lines, fmt.Sprintf("[Location: %s]", loc))
	}
	if env == nil {
		return lines
	}

	if f := env.Fire; f != nil {
		line := fmt.Sprintf("[Fire activity: %d detections in %d clusters", f.TotalPoints, f.ClusterCount)
		if f.HighestPower != nil {
			line += fmt.Sprintf(", peak radiative power %.1f MW", *f.HighestPower)
		}
		lines = append(lines, line+". "+f.Summary+"]")
	}
	if a := env.AirQuality; a != nil {
		line := fmt.Sprintf("[Air quality: %d stations reporting", a.StationCount)
		if a.PM25Range != nil {
			line += ", PM2.5 " + *a.PM25Range
		}
		if a.WorstParameter != nil {
			line += ", worst parameter " + *a.WorstParameter
		}
		lines = append(lines, line+". "+a.Summary+"]")
	}
	if w := env.Webcams; w != nil {
		line := fmt.Sprintf("[Webcams: %d of %d active", w.ActiveCount, w.Total)
		if len(w.Categories) > 0 {
			line += ", categories: " + strings.Join(w.Categories, ", ")
		}
		lines = append(lines, line+". "+w.Summary+"]")
	}
	if c := env.Conflict; c != nil {
		line := fmt.Sprintf("[Conflict events (curated): %d events, %d fatalities over %s", c.TotalEvents, c.Fatalities, c.TimeRange)
		if len(c.EventTypes) > 0 {
			line += ", types: " + strings.Join(c.EventTypes, ", ")
		}
		lines = append(lines, line+". "+c.Summary+"]")
	}
	if l := env.LiveConflict; l != nil {
		line := fmt.Sprintf("[Conflict signals (real-time): %d events, %d geolocated, average tone %.1f", l.TotalEvents, l.GeolocatedCount, l.AverageTone)
		if len(l.TopSources) > 0 {
			line += ", top sources: " + strings.Join(l.TopSources, ", ")
		}
		lines = append(lines, line+". "+l.Summary+"]")
	}

	return lines
}

// BuildTranscript concatenates the three perspective results into the
// cross-core transcript the synthesis model receives. Perspectives appear in
// declaration order, never completion order.
func BuildTranscript(cores [domain.PerspectiveCount]domain.CoreResult, query, location string, env *domain.EnvironmentalContext) string {
	var b strings.Builder

	b.WriteString("Original query:\n")
	b.WriteString(query)
	b.WriteString("\n")

	for _, line := range contextLines(location, env) {
		b.WriteString("\n")
		b.WriteString(line)
		b.WriteString("\n")
	}

	for _, core := range cores {
		fmt.Fprintf(&b, "\n=== %s (%s, %d attempt(s)) ===\n", core.Perspective.Title(), core.Perspective.Name(), core.Attempts)
		b.WriteString(core.Text)
		b.WriteString("\n")
	}

	return b.String()
}
