package domain

import (
	"fmt"
	"strings"
)

// Perspective identifies one of the fixed analytical viewpoints that
// independently answers a user query. The set is closed: every switch over
// Perspective can be exhaustive, and behavior is attached to the identity
// rather than looked up by name.
type Perspective int

const (
	// PerspectiveTactical assesses immediate physical threats and
	// ground-level security conditions.
	PerspectiveTactical Perspective = iota
	// PerspectiveEnvironmental assesses hazards to health and habitability:
	// fires, air quality, infrastructure strain.
	PerspectiveEnvironmental
	// PerspectiveStrategic assesses the wider political and conflict
	// trajectory over days to weeks.
	PerspectiveStrategic

	// PerspectiveCount is the number of perspectives; valid values are
	// [0, PerspectiveCount).
	PerspectiveCount
)

// OfflineMarker is the sentinel prefix a core's text carries when it could
// not produce a real answer. Outputs beginning with it are never validated.
const OfflineMarker = "[CORE OFFLINE]"

// Perspectives returns all perspectives in declaration order. This order is
// the canonical presentation order for transcripts, reports, and error lists.
func Perspectives() [PerspectiveCount]Perspective {
	return [PerspectiveCount]Perspective{
		PerspectiveTactical,
		PerspectiveEnvironmental,
		PerspectiveStrategic,
	}
}

// MarshalJSON emits the perspective's short name so persisted reports stay
// readable and stable across reorderings of the constants.
func (p Perspective) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.Name() + `"`), nil
}

// UnmarshalJSON accepts the short name form produced by MarshalJSON.
func (p *Perspective) UnmarshalJSON(data []byte) error {
	name := strings.Trim(string(data), `"`)
	for _, candidate := range Perspectives() {
		if candidate.Name() == name {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown perspective %q", name)
}

// IsValid reports whether p is a recognized perspective.
func (p Perspective) IsValid() bool {
	return p >= 0 && p < PerspectiveCount
}

// Name returns the short lowercase identifier used in prompts, logs, and
// persisted records.
func (p Perspective) Name() string {
	switch p {
	case PerspectiveTactical:
		return "tactical"
	case PerspectiveEnvironmental:
		return "environmental"
	case PerspectiveStrategic:
		return "strategic"
	default:
		return "unknown"
	}
}

// Title returns the human-facing label for report headers.
func (p Perspective) Title() string {
	switch p {
	case PerspectiveTactical:
		return "Tactical Assessment"
	case PerspectiveEnvironmental:
		return "Environmental Assessment"
	case PerspectiveStrategic:
		return "Strategic Outlook"
	default:
		return "Unknown"
	}
}

// SystemInstruction returns the system prompt that binds a core to this
// perspective.
func (p Perspective) SystemInstruction() string {
	switch p {
	case PerspectiveTactical:
		return "You are the tactical analysis core of a situational advisory system. " +
			"Assess the user's situation strictly from the standpoint of immediate physical " +
			"security: active threats, proximity to danger, movement and shelter options, " +
			"and the next 6 to 24 hours. Be concrete and decision-oriented. Do not cover " +
			"long-term political developments or environmental health topics; other cores " +
			"handle those. If you cannot analyze the situation, reply with exactly " +
			"\"" + OfflineMarker + "\" followed by a one-line reason."
	case PerspectiveEnvironmental:
		return "You are the environmental analysis core of a situational advisory system. " +
			"Assess the user's situation strictly from the standpoint of environmental and " +
			"health hazards: fires, smoke and air quality, water and infrastructure, weather " +
			"exposure, and their effect on habitability and safe movement. Quantify where the " +
			"provided data allows it. Do not assess armed-conflict dynamics; other cores " +
			"handle those. If you cannot analyze the situation, reply with exactly " +
			"\"" + OfflineMarker + "\" followed by a one-line reason."
	case PerspectiveStrategic:
		return "You are the strategic analysis core of a situational advisory system. " +
			"Assess the user's situation from the standpoint of conflict trajectory and " +
			"political context over the coming days to weeks: escalation patterns, actors and " +
			"their incentives, and how the broader situation is likely to develop. Ground " +
			"claims in the supplied event data when present. Do not give street-level " +
			"movement advice; the tactical core handles that. If you cannot analyze the " +
			"situation, reply with exactly \"" + OfflineMarker + "\" followed by a one-line reason."
	default:
		return ""
	}
}

// Rubric returns the perspective-specific validation criteria the judge
// applies to this core's output. The judge prompt embeds it verbatim.
func (p Perspective) Rubric() string {
	switch p {
	case PerspectiveTactical:
		return "The answer must address immediate physical security, name concrete actions " +
			"or conditions for the next 6-24 hours, and stay out of long-term political or " +
			"environmental-health analysis."
	case PerspectiveEnvironmental:
		return "The answer must address environmental and health hazards (fire, air, water, " +
			"weather, infrastructure), use the supplied measurements where available, and stay " +
			"out of armed-conflict analysis."
	case PerspectiveStrategic:
		return "The answer must address conflict trajectory and political context over days " +
			"to weeks, reference the supplied event data where available, and avoid " +
			"street-level tactical instructions."
	default:
		return ""
	}
}
