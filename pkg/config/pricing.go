package config

// PricingConfig maps agent -> model -> per-1k token pricing. It is consumed
// only for cost totals, never for control flow.
type PricingConfig map[string]map[string]ModelPricing

// ModelPricing defines per-1k token pricing.
type ModelPricing struct {
	PromptPer1K     float64 `yaml:"prompt_per_1k,omitempty"`
	CompletionPer1K float64 `yaml:"completion_per_1k,omitempty"`
}

// For resolves the pricing entry for an agent/model pair, falling back to
// the agent's "default" entry.
func (p PricingConfig) For(agentID, model string) (ModelPricing, bool) {
	if p == nil {
		return ModelPricing{}, false
	}
	agentPricing, ok := p[agentID]
	if !ok {
		return ModelPricing{}, false
	}
	if entry, ok := agentPricing[model]; ok {
		return entry, true
	}
	if entry, ok := agentPricing["default"]; ok {
		return entry, true
	}
	return ModelPricing{}, false
}
