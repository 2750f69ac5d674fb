package http_test

import (
	"testing"

	llmhttp "github.com/FaridSuleymanov/sibyl/internal/adapter/llm/http"
	"github.com/stretchr/testify/assert"
)

func TestDefaultPricing_GetCost(t *testing.T) {
	pricing := llmhttp.NewDefaultPricing()

	tests := []struct {
		name      string
		provider  string
		model     string
		tokensIn  int
		tokensOut int
		want      float64
	}{
		{
			name:      "anthropic sonnet",
			provider:  "anthropic",
			model:     "claude-sonnet-4-20250514",
			tokensIn:  1_000_000,
			tokensOut: 1_000_000,
			want:      18.00, // 3.00 in + 15.00 out
		},
		{
			name:      "openai gpt-4o partial tokens",
			provider:  "openai",
			model:     "gpt-4o",
			tokensIn:  100_000,
			tokensOut: 50_000,
			want:      0.75, // 0.25 + 0.50
		},
		{
			name:      "gemini flash",
			provider:  "gemini",
			model:     "gemini-2.0-flash",
			tokensIn:  1_000_000,
			tokensOut: 0,
			want:      0.10,
		},
		{
			name:      "unknown model costs zero",
			provider:  "anthropic",
			model:     "claude-unreleased",
			tokensIn:  1_000_000,
			tokensOut: 1_000_000,
			want:      0.0,
		},
		{
			name:      "unknown provider costs zero",
			provider:  "mystery",
			model:     "whatever",
			tokensIn:  1_000_000,
			tokensOut: 1_000_000,
			want:      0.0,
		},
		{
			name:      "static provider costs zero",
			provider:  "static",
			model:     "canned",
			tokensIn:  500,
			tokensOut: 500,
			want:      0.0,
		},
		{
			name:      "zero tokens cost zero",
			provider:  "openai",
			model:     "gpt-4o",
			tokensIn:  0,
			tokensOut: 0,
			want:      0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pricing.GetCost(tt.provider, tt.model, tt.tokensIn, tt.tokensOut)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
