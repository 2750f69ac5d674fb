package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/FaridSuleymanov/sibyl/internal/domain"
)

const (
	judgeTemperature = 0.1
	judgeMaxTokens   = 512
)

// Verdict is the result of one judge call.
// Feedback is a single sentence and is non-empty whenever Pass is false and
// the judge itself did not error.
type Verdict struct {
	Pass     bool
	Issues   []string
	Feedback string
}

// judgeWire matches the JSON the judge model is instructed to emit.
// Pass is a pointer so a missing or malformed field is distinguishable and
// treated as a pass.
type judgeWire struct {
	Pass     *bool    `json:"pass"`
	Issues   []string `json:"issues"`
	Feedback string   `json:"feedback"`
}

// judgeService evaluates candidate outputs against rubrics using a fast
// secondary model. It fails open: any transport, timeout, or parse error on
// the judge's side becomes an automatic pass, so the judge can never be a
// single point of failure. Evaluate never returns an error.
type judgeService struct {
	client  Completer
	timeout time.Duration
	logger  Logger
}

// Evaluate checks a perspective core's candidate against that perspective's
// rubric plus the shared checks.
func (j *judgeService) Evaluate(ctx context.Context, p domain.Perspective, candidate, query string, hasEnvContext bool) Verdict {
	prompt := buildJudgePrompt(p.Name(), p.Rubric(), candidate, query, hasEnvContext)
	return j.run(ctx, "judge:"+p.Name(), prompt)
}

// EvaluateSynthesis checks the synthesized verdict against the
// synthesis-specific rubric.
func (j *judgeService) EvaluateSynthesis(ctx context.Context, candidate, query string, hasEnvContext bool) Verdict {
	prompt := buildJudgePrompt("synthesis", synthesisRubric, candidate, query, hasEnvContext)
	return j.run(ctx, "judge:synthesis", prompt)
}

func (j *judgeService) run(ctx context.Context, label, prompt string) Verdict {
	text, err := invokeWithDeadline(ctx, label, j.timeout, func(ctx context.Context) (string, error) {
		return j.client.Complete(ctx, CompletionRequest{
			System:      judgeSystemInstruction,
			Prompt:      prompt,
			Temperature: judgeTemperature,
			MaxTokens:   judgeMaxTokens,
		})
	})
	if err != nil {
		// Fail open: the candidate proceeds as accepted.
		j.warn(ctx, "judge call failed, treating candidate as accepted", map[string]interface{}{
			"call":  label,
			"error": err.Error(),
		})
		return Verdict{Pass: true}
	}

	var wire judgeWire
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &wire); err != nil {
		j.warn(ctx, "judge returned unparseable verdict, treating candidate as accepted", map[string]interface{}{
			"call":  label,
			"error": err.Error(),
		})
		return Verdict{Pass: true}
	}
	if wire.Pass == nil || *wire.Pass {
		return Verdict{Pass: true}
	}

	feedback := strings.TrimSpace(wire.Feedback)
	if feedback == "" && len(wire.Issues) > 0 {
		feedback = wire.Issues[0]
	}
	if feedback == "" {
		feedback = "Address the reported shortcomings while staying in your assigned perspective."
	}
	return Verdict{Pass: false, Issues: wire.Issues, Feedback: feedback}
}

func (j *judgeService) warn(ctx context.Context, msg string, fields map[string]interface{}) {
	if j.logger != nil {
		j.logger.LogWarning(ctx, msg, fields)
	}
}

const judgeSystemInstruction = "You are a strict quality reviewer inside an automated advisory pipeline. " +
	"You receive a candidate answer, the criteria it must meet, and the original query. " +
	"Respond with one raw JSON object and nothing else: " +
	`{"pass": boolean, "issues": [short strings, empty when pass], "feedback": "one sentence, empty when pass"}`

const synthesisRubric = "The verdict must faithfully synthesize all three perspective analyses, " +
	"resolve any disagreements between them explicitly rather than ignoring one side, stay relevant " +
	"to the original query, keep the safety coefficient, color band, and scenarios internally " +
	"consistent, and end with an actionable final verdict sentence."

func buildJudgePrompt(name, rubric, candidate, query string, hasEnvContext bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Evaluate the following %s output.\n\n", name)
	b.WriteString("Criteria:\n")
	fmt.Fprintf(&b, "1. The answer is relevant to the original query.\n")
	fmt.Fprintf(&b, "2. %s\n", rubric)
	b.WriteString("3. The answer is substantive, not filler or hedging.\n")
	b.WriteString("4. The answer is complete enough to act on.\n")
	if hasEnvContext {
		b.WriteString("5. The answer incorporates the supplied environmental data rather than ignoring it.\n")
	}

	fmt.Fprintf(&b, "\nOriginal query:\n%s\n", query)
	fmt.Fprintf(&b, "\nCandidate output:\n%s\n", candidate)

	return b.String()
}
