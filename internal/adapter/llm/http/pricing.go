package http

// Pricing calculates API cost from token usage.
type Pricing interface {
	// GetCost returns the USD cost for a call against provider/model.
	GetCost(provider, model string, tokensIn, tokensOut int) float64
}

// ModelPricing holds per-model token rates.
type ModelPricing struct {
	InputPer1M  float64 // USD per 1M input tokens
	OutputPer1M float64 // USD per 1M output tokens
}

// DefaultPricing is a static rate table. Unknown models cost zero rather
// than erroring; cost tracking is advisory, not billing.
type DefaultPricing struct {
	prices map[string]map[string]ModelPricing
}

// NewDefaultPricing creates a pricing calculator with current rates.
func NewDefaultPricing() *DefaultPricing {
	return &DefaultPricing{prices: buildPricingTable()}
}

// GetCost calculates the cost for a given call.
func (p *DefaultPricing) GetCost(provider, model string, tokensIn, tokensOut int) float64 {
	providerPrices, ok := p.prices[provider]
	if !ok {
		return 0.0
	}
	rate, ok := providerPrices[model]
	if !ok {
		return 0.0
	}
	return float64(tokensIn)/1_000_000.0*rate.InputPer1M +
		float64(tokensOut)/1_000_000.0*rate.OutputPer1M
}

// buildPricingTable returns rates for the models this system is normally
// configured with. Pricing as of 2026-08.
func buildPricingTable() map[string]map[string]ModelPricing {
	return map[string]map[string]ModelPricing{
		"anthropic": {
			"claude-sonnet-4-20250514": {InputPer1M: 3.00, OutputPer1M: 15.00},
			"claude-3-5-haiku-latest":  {InputPer1M: 0.80, OutputPer1M: 4.00},
		},
		"openai": {
			"gpt-4o":      {InputPer1M: 2.50, OutputPer1M: 10.00},
			"gpt-4o-mini": {InputPer1M: 0.15, OutputPer1M: 0.60},
		},
		"gemini": {
			"gemini-2.0-flash": {InputPer1M: 0.10, OutputPer1M: 0.40},
			"gemini-1.5-pro":   {InputPer1M: 1.25, OutputPer1M: 5.00},
		},
		// Local providers run on the user's own hardware; every model is free.
		"ollama": {},
		"static": {},
	}
}
