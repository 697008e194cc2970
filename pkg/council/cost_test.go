package council

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zen-systems/quorum/pkg/config"
	"github.com/zen-systems/quorum/pkg/schema"
)

func TestCostTrackerAccumulates(t *testing.T) {
	pricing := config.PricingConfig{
		"openai": {
			"gpt-4o": {PromptPer1K: 0.0025, CompletionPer1K: 0.01},
		},
		"deepseek": {
			"default": {PromptPer1K: 0.0002, CompletionPer1K: 0.001},
		},
	}

	tracker := newCostTracker(pricing)
	tracker.record("openai", "gpt-4o", schema.Usage{PromptTokens: 2000, CompletionTokens: 1000})
	tracker.record("deepseek", "deepseek-chat", schema.Usage{PromptTokens: 1000, CompletionTokens: 1000})

	// openai: 2*0.0025 + 1*0.01; deepseek via the default entry: 0.0002 + 0.001
	assert.InDelta(t, 0.0162, tracker.totalUSD, 1e-9)
	assert.Equal(t, 5000, tracker.totalUsage.TotalTokens)
}

func TestCostTrackerUnpricedModelIsFree(t *testing.T) {
	tracker := newCostTracker(config.PricingConfig{})
	tracker.record("local", "llama", schema.Usage{PromptTokens: 5000, CompletionTokens: 5000})

	assert.Equal(t, 0.0, tracker.totalUSD)
	assert.Equal(t, 10000, tracker.totalUsage.TotalTokens)
}

func TestCostTrackerNormalizesUsage(t *testing.T) {
	tracker := newCostTracker(nil)
	tracker.record("a", "m", schema.Usage{PromptTokens: 100, CompletionTokens: 50})
	assert.Equal(t, 150, tracker.totalUsage.TotalTokens)
}
