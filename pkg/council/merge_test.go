package council

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zen-systems/quorum/pkg/agent"
	"github.com/zen-systems/quorum/pkg/config"
	"github.com/zen-systems/quorum/pkg/reasoner"
	"github.com/zen-systems/quorum/pkg/schema"
)

func TestResearchNoAgents(t *testing.T) {
	c := New(nil)
	_, err := c.Research(context.Background(), "q", schema.DomainGeneral, 500)
	require.ErrorIs(t, err, ErrNoAgents)
}

// Three agents, one fails in transit: the result must still account for every
// seat and carry both surviving answers.
func TestResearchPartialFailure(t *testing.T) {
	agents := []agent.Agent{
		&agent.MockAgent{
			AgentID: "a", ModelName: "mock-1",
			Answer:     "Exercise is beneficial",
			KeyPoints:  []string{"Exercise improves cardiovascular health"},
			Confidence: schema.ConfidenceHigh,
			Usage:      schema.Usage{PromptTokens: 100, CompletionTokens: 50},
		},
		&agent.MockAgent{
			AgentID: "b", ModelName: "mock-1",
			Answer:     "Working out helps the heart",
			KeyPoints:  []string{"Regular exercise improves cardiovascular health significantly"},
			Confidence: schema.ConfidenceHigh,
			Usage:      schema.Usage{PromptTokens: 100, CompletionTokens: 60},
		},
		&agent.MockAgent{AgentID: "c", Err: &agent.TransportError{Status: 502}},
	}

	c := New(agents)
	result, err := c.Research(context.Background(), "does exercise help the heart", schema.DomainHealthcare, 500)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalAgents)
	assert.Equal(t, 2, result.SuccessfulAgents)
	assert.Equal(t, []string{"c"}, result.FailedAgents)
	assert.Equal(t, result.TotalAgents, result.SuccessfulAgents+len(result.FailedAgents))

	require.Len(t, result.Responses, 2)
	assert.Contains(t, result.Responses, "a")
	assert.Contains(t, result.Responses, "b")

	assert.Equal(t, schema.StrategyHeuristic, result.Strategy)
	require.NotEmpty(t, result.Consensus)
	assert.Contains(t, result.Consensus[0], "cardiovascular health")
	assert.NotEmpty(t, result.SynthesizedAnswer)
	assert.Equal(t, 310, result.Usage.TotalTokens)
	assert.NotEmpty(t, result.ID)
}

func TestResearchAllFailed(t *testing.T) {
	agents := []agent.Agent{
		&agent.MockAgent{AgentID: "a", Err: &agent.TransportError{Status: 500}},
		&agent.MockAgent{AgentID: "b", Err: errors.New("mystery")},
	}

	c := New(agents)
	_, err := c.Research(context.Background(), "q", schema.DomainGeneral, 500)

	var allFailed *AllFailedError
	require.ErrorAs(t, err, &allFailed)
	require.Len(t, allFailed.Failures, 2)
	assert.Equal(t, FailureTransport, allFailed.Failures["a"].Kind)
	assert.Equal(t, FailureUnknown, allFailed.Failures["b"].Kind)
	assert.Contains(t, err.Error(), "all 2 agents failed")
}

func TestResearchSynthesizerPath(t *testing.T) {
	agents := []agent.Agent{
		agent.NewMockAgent("a", "Exercise helps", "Exercise improves cardiovascular health"),
		agent.NewMockAgent("b", "Working out helps", "Regular exercise improves cardiovascular health"),
	}

	synth := NewSynthesizer(&reasoner.MockReasoner{
		Text:  structuredCompletion,
		Usage: schema.Usage{PromptTokens: 800, CompletionTokens: 200},
	})

	c := New(agents, WithSynthesizer(synth))
	result, err := c.Research(context.Background(), "q", schema.DomainHealthcare, 500)
	require.NoError(t, err)

	assert.Equal(t, schema.StrategySynthesizer, result.Strategy)
	assert.False(t, result.HeuristicFallback)
	assert.False(t, result.SynthesisDegraded)
	assert.Equal(t, "Regular exercise measurably improves cardiovascular health.", result.SynthesizedAnswer)
	assert.Equal(t, schema.ConfidenceHigh, result.Confidence)
	assert.NotEmpty(t, result.KnowledgeGaps)
	assert.NotEmpty(t, result.VerificationNeeded)
	assert.NotEmpty(t, result.ReasoningTrace)
	// Synthesizer usage folds into the totals.
	assert.Equal(t, 1000, result.Usage.TotalTokens)
}

func TestResearchSynthesizerFallsBackToHeuristic(t *testing.T) {
	agents := []agent.Agent{
		agent.NewMockAgent("a", "Exercise helps", "Exercise improves cardiovascular health"),
		agent.NewMockAgent("b", "Working out helps", "Regular exercise improves cardiovascular health"),
	}

	synth := NewSynthesizer(&reasoner.MockReasoner{Err: errors.New("connection refused")})

	c := New(agents, WithSynthesizer(synth))
	result, err := c.Research(context.Background(), "q", schema.DomainHealthcare, 500)
	require.NoError(t, err)

	assert.Equal(t, schema.StrategyHeuristic, result.Strategy)
	assert.True(t, result.HeuristicFallback)
	require.NotEmpty(t, result.Consensus)
	assert.NotEmpty(t, result.SynthesizedAnswer)
}

func TestResearchDegradedSynthesisIsNotFallback(t *testing.T) {
	agents := []agent.Agent{
		agent.NewMockAgent("a", "Exercise helps", "point"),
	}

	synth := NewSynthesizer(&reasoner.MockReasoner{Text: "just prose, no structure"})

	c := New(agents, WithSynthesizer(synth))
	result, err := c.Research(context.Background(), "q", schema.DomainGeneral, 500)
	require.NoError(t, err)

	assert.Equal(t, schema.StrategySynthesizer, result.Strategy)
	assert.True(t, result.SynthesisDegraded)
	assert.False(t, result.HeuristicFallback)
	assert.Equal(t, "just prose, no structure", result.SynthesizedAnswer)
}

func TestResearchSingleSuccessUsesItsAnswer(t *testing.T) {
	agents := []agent.Agent{
		agent.NewMockAgent("solo", "The only answer", "single point"),
		&agent.MockAgent{AgentID: "down", Err: &agent.TransportError{Status: 503}},
	}

	c := New(agents)
	result, err := c.Research(context.Background(), "q", schema.DomainGeneral, 500)
	require.NoError(t, err)

	assert.Equal(t, "The only answer", result.SynthesizedAnswer)
	assert.Equal(t, 2, result.TotalAgents)
	assert.Equal(t, 1, result.SuccessfulAgents)
}

func TestResearchComputesCost(t *testing.T) {
	pricing := config.PricingConfig{
		"a": {"mock-1": {PromptPer1K: 0.01, CompletionPer1K: 0.02}},
	}

	agents := []agent.Agent{
		&agent.MockAgent{
			AgentID: "a", ModelName: "mock-1",
			Answer: "x", KeyPoints: []string{"p"},
			Confidence: schema.ConfidenceMedium,
			Usage:      schema.Usage{PromptTokens: 1000, CompletionTokens: 500},
		},
	}

	c := New(agents, WithPricing(pricing))
	result, err := c.Research(context.Background(), "q", schema.DomainGeneral, 500)
	require.NoError(t, err)

	// 1000 prompt tokens at $0.01/1K plus 500 completion at $0.02/1K.
	assert.InDelta(t, 0.02, result.CostUSD, 1e-9)
	assert.Equal(t, 1500, result.Usage.TotalTokens)
}

func TestAgentsMetadata(t *testing.T) {
	c := New([]agent.Agent{
		agent.NewMockAgent("a", "x"),
		agent.NewMockAgent("b", "y"),
	})
	infos := c.Agents()
	require.Len(t, infos, 2)
	assert.Equal(t, agent.Info{ID: "a", Model: "mock-1"}, infos[0])
}
