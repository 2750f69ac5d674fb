// Package static provides a canned Completer for dry runs and wiring tests.
// It answers every perspective with fixed text and emits a minimal valid
// verdict JSON when asked to synthesize, so a full pipeline run works with no
// network and no API keys.
package static

import (
	"context"
	"strings"

	"github.com/FaridSuleymanov/sibyl/internal/usecase/analyze"
)

// Client implements the engine's Completer port with fixed responses.
type Client struct {
	model string
}

// NewClient constructs a static Client.
func NewClient(model string) *Client {
	return &Client{model: model}
}

const staticVerdictJSON = `{"safetyCoefficient": 70, "escalationRisk24h": 20, ` +
	`"dominantThreat": "none identified", "psychoPassColor": "yellow", ` +
	`"executiveSummary": "Static verdict produced without contacting any model endpoint.", ` +
	`"scenarios": [], "finalVerdict": "Proceed; this is canned output for a dry run."}`

// Complete returns canned text. Requests whose system instruction asks for a
// JSON object get the static verdict; everything else gets plain prose, which
// covers both perspective generation and judge calls (a judge parse failure
// fails open).
func (c *Client) Complete(ctx context.Context, req analyze.CompletionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.Contains(req.System, "JSON object") {
		return staticVerdictJSON, nil
	}
	return "Static analysis from the " + c.model + " stand-in: no live assessment was performed.", nil
}
