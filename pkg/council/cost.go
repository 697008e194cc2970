package council

import (
	"github.com/zen-systems/quorum/pkg/config"
	"github.com/zen-systems/quorum/pkg/schema"
)

// costTracker accumulates token usage and estimated spend across the worker
// agents and the synthesizer. Models missing from the pricing table count as
// zero cost, matching free-tier and local providers.
type costTracker struct {
	pricing    config.PricingConfig
	totalUsage schema.Usage
	totalUSD   float64
}

func newCostTracker(pricing config.PricingConfig) *costTracker {
	return &costTracker{pricing: pricing}
}

// record adds one priced call to the totals.
func (t *costTracker) record(agentID, model string, usage schema.Usage) {
	usage = usage.Normalize()
	t.totalUsage = t.totalUsage.Add(usage)
	t.totalUSD += estimateCost(t.pricing, agentID, model, usage)
}

func estimateCost(pricing config.PricingConfig, agentID, model string, usage schema.Usage) float64 {
	entry, ok := pricing.For(agentID, model)
	if !ok {
		return 0
	}
	promptCost := (float64(usage.PromptTokens) / 1000.0) * entry.PromptPer1K
	completionCost := (float64(usage.CompletionTokens) / 1000.0) * entry.CompletionPer1K
	return promptCost + completionCost
}
