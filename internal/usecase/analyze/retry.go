package analyze

import (
	"context"
	"fmt"
	"strings"

	"github.com/FaridSuleymanov/sibyl/internal/domain"
)

const (
	generationTemperature = 0.7
	generationMaxTokens   = 2048
)

// runCore drives one perspective pipeline: generate, validate, and on
// rejection regenerate with the judge's feedback, up to the attempt ceiling.
// It never returns early with less than a usable text: exhaustion and
// terminal transport failures degrade into offline-marker text plus an error
// summary on the result.
func (e *Engine) runCore(ctx context.Context, p domain.Perspective, prompt, query string, hasEnvContext bool) domain.CoreResult {
	client := e.deps.Cores[p]
	feedback := ""

	var lastText string
	var lastVerdict Verdict

	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		label := "core:" + p.Name()
		generationPrompt := prompt
		if feedback != "" {
			generationPrompt = prompt + "\n\nA reviewer rejected your previous answer with this feedback: " +
				feedback + "\nAddress that issue while staying strictly within your assigned perspective."
		}

		text, err := invokeWithDeadline(ctx, label, e.cfg.GenerationTimeout, func(ctx context.Context) (string, error) {
			return client.Complete(ctx, CompletionRequest{
				System:      p.SystemInstruction(),
				Prompt:      generationPrompt,
				Temperature: generationTemperature,
				MaxTokens:   generationMaxTokens,
			})
		})
		if err != nil {
			if attempt == e.cfg.MaxAttempts {
				return domain.CoreResult{
					Perspective: p,
					Text:        offlineText(p),
					Attempts:    attempt,
					Err:         fmt.Sprintf("%s core generation failed: %v", p.Name(), err),
				}
			}
			// Transient failure: retry at the same feedback state.
			e.warn(ctx, "core generation failed, retrying", map[string]interface{}{
				"perspective": p.Name(),
				"attempt":     attempt,
				"error":       err.Error(),
			})
			continue
		}

		text = strings.TrimSpace(text)
		lastText = text

		// A core that reports itself offline is known-degraded; validating
		// it would only burn a judge call and a retry.
		if strings.HasPrefix(text, domain.OfflineMarker) {
			return domain.CoreResult{
				Perspective: p,
				Text:        text,
				Attempts:    attempt,
				Err:         fmt.Sprintf("%s core reported itself offline", p.Name()),
			}
		}

		verdict := e.judge.Evaluate(ctx, p, text, query, hasEnvContext)
		if verdict.Pass {
			return domain.CoreResult{Perspective: p, Text: text, Attempts: attempt}
		}
		lastVerdict = verdict
		feedback = verdict.Feedback

		e.info(ctx, "core output rejected", map[string]interface{}{
			"perspective": p.Name(),
			"attempt":     attempt,
			"issues":      strings.Join(verdict.Issues, "; "),
		})
	}

	return domain.CoreResult{
		Perspective: p,
		Text:        lastText,
		Attempts:    e.cfg.MaxAttempts,
		Err: fmt.Sprintf("%s core failed validation after %d attempts: %s",
			p.Name(), e.cfg.MaxAttempts, summarizeIssues(lastVerdict)),
	}
}

// offlineText synthesizes the degraded stand-in for a core that never
// produced output. It carries the same marker a self-reporting core uses.
func offlineText(p domain.Perspective) string {
	return fmt.Sprintf("%s The %s core did not produce an analysis for this query.", domain.OfflineMarker, p.Name())
}

func summarizeIssues(v Verdict) string {
	if len(v.Issues) > 0 {
		return strings.Join(v.Issues, "; ")
	}
	if v.Feedback != "" {
		return v.Feedback
	}
	return "no issues reported"
}
