package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/FaridSuleymanov/sibyl/internal/domain"
)

const (
	synthesisTemperature = 0.4
	synthesisMaxTokens   = 4096
)

// synthesisWire is what the synthesis model actually emits. Numbers arrive
// as floats (models routinely emit 62.0), scenarios as raw JSON so a wrong
// shape can be coerced instead of failing the whole parse.
type synthesisWire struct {
	SafetyCoefficient *float64        `json:"safetyCoefficient"`
	EscalationRisk24h *float64        `json:"escalationRisk24h"`
	DominantThreat    string          `json:"dominantThreat"`
	ColorBand         string          `json:"psychoPassColor"`
	ExecutiveSummary  string          `json:"executiveSummary"`
	Scenarios         json.RawMessage `json:"scenarios"`
	FinalVerdict      string          `json:"finalVerdict"`
}

var fenceRe = regexp.MustCompile("(?i)^```[a-z]*\\s*\n?([\\s\\S]*?)\n?```\\s*$")

// ExtractJSON strips a surrounding markdown code fence (optional language
// tag, case-insensitive) and trims whitespace. Idempotent: unfenced input
// comes back trimmed and otherwise untouched.
func ExtractJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}

// synthesize merges the three perspective texts into one structured verdict.
// Mirrors the per-core retry loop but operates on the whole verdict object:
// generate, parse, structural check, unconditional auto-correct, then judge.
// Retries carry only a generic correction instruction; synthesis rejections
// rarely localize to one fixable sentence, so no specific feedback is
// threaded back. On exhaustion the fixed fallback verdict is substituted.
func (e *Engine) synthesize(ctx context.Context, cores [domain.PerspectiveCount]domain.CoreResult, query, location string, env *domain.EnvironmentalContext) (domain.SynthesizedVerdict, string) {
	transcript := BuildTranscript(cores, query, location, env)
	hasEnvContext := !env.IsEmpty()

	var lastFailure string
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		prompt := synthesisPrompt(transcript, attempt > 1)

		raw, err := invokeWithDeadline(ctx, "synthesis", e.cfg.SynthesisTimeout, func(ctx context.Context) (string, error) {
			return e.deps.Synthesis.Complete(ctx, CompletionRequest{
				System:      synthesisSystemInstruction,
				Prompt:      prompt,
				Temperature: synthesisTemperature,
				MaxTokens:   synthesisMaxTokens,
			})
		})
		if err != nil {
			lastFailure = err.Error()
			e.warn(ctx, "synthesis call failed", map[string]interface{}{
				"attempt": attempt,
				"error":   err.Error(),
			})
			continue
		}

		verdict, parseErr := parseVerdict(raw)
		if parseErr != nil {
			lastFailure = parseErr.Error()
			e.warn(ctx, "synthesis output rejected structurally", map[string]interface{}{
				"attempt": attempt,
				"error":   parseErr.Error(),
			})
			continue
		}

		candidate, _ := json.Marshal(verdict)
		judgeVerdict := e.judge.EvaluateSynthesis(ctx, string(candidate), query, hasEnvContext)
		if judgeVerdict.Pass {
			return verdict, ""
		}
		lastFailure = summarizeIssues(judgeVerdict)
		e.info(ctx, "synthesis output rejected by judge", map[string]interface{}{
			"attempt": attempt,
			"issues":  lastFailure,
		})
	}

	errEntry := fmt.Sprintf("synthesis exhausted %d attempts, substituting fallback verdict: %s",
		e.cfg.MaxAttempts, lastFailure)
	return domain.FallbackVerdict(), errEntry
}

// parseVerdict extracts, structurally validates, and auto-corrects one
// synthesis response. The color band is always recomputed from the safety
// coefficient, overwriting whatever the model emitted; missing or malformed
// scenarios coerce to an empty list.
func parseVerdict(raw string) (domain.SynthesizedVerdict, error) {
	var wire synthesisWire
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &wire); err != nil {
		return domain.SynthesizedVerdict{}, fmt.Errorf("synthesis output is not a JSON object: %w", err)
	}

	if wire.SafetyCoefficient == nil {
		return domain.SynthesizedVerdict{}, fmt.Errorf("synthesis output missing numeric safetyCoefficient")
	}
	if !domain.ColorBand(wire.ColorBand).IsValid() {
		return domain.SynthesizedVerdict{}, fmt.Errorf("synthesis output has unrecognized color band %q", wire.ColorBand)
	}

	coefficient := int(*wire.SafetyCoefficient)
	risk := 0
	if wire.EscalationRisk24h != nil {
		risk = int(*wire.EscalationRisk24h)
	}

	scenarios := []domain.Scenario{}
	if len(wire.Scenarios) > 0 {
		var parsed []domain.Scenario
		if err := json.Unmarshal(wire.Scenarios, &parsed); err == nil && parsed != nil {
			scenarios = parsed
		}
	}

	return domain.SynthesizedVerdict{
		SafetyCoefficient: coefficient,
		EscalationRisk24h: risk,
		DominantThreat:    wire.DominantThreat,
		ColorBand:         domain.ColorBandFor(coefficient),
		ExecutiveSummary:  wire.ExecutiveSummary,
		Scenarios:         scenarios,
		FinalVerdict:      wire.FinalVerdict,
	}, nil
}

const synthesisSystemInstruction = "You are the synthesis core of a situational advisory system. " +
	"You receive three perspective analyses (tactical, environmental, strategic) of one situation. " +
	"Merge them into a single verdict. Respond with exactly one raw JSON object, no prose and no " +
	"markdown fence, with this shape: " +
	`{"safetyCoefficient": 0-100 integer (higher is safer), "escalationRisk24h": 0-100 integer, ` +
	`"dominantThreat": string, "psychoPassColor": "green"|"yellow"|"orange"|"red", ` +
	`"executiveSummary": string, "scenarios": [{"timeframe": string, "probability": 0-100, ` +
	`"description": string, "recommendedAction": string}], "finalVerdict": string}`

func synthesisPrompt(transcript string, isRetry bool) string {
	var b strings.Builder
	if isRetry {
		b.WriteString("Your previous response was rejected. Resynthesize the analyses faithfully and ")
		b.WriteString("emit pure JSON matching the required shape, with no surrounding text.\n\n")
	}
	b.WriteString("Synthesize the following perspective analyses into one verdict. Where the ")
	b.WriteString("perspectives disagree, resolve the disagreement explicitly in the executive summary.\n\n")
	b.WriteString(transcript)
	return b.String()
}
