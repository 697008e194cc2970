package council

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zen-systems/quorum/pkg/reasoner"
	"github.com/zen-systems/quorum/pkg/schema"
)

const structuredCompletion = "```json\n" + `{
  "consensus_points": ["Exercise improves cardiovascular health"],
  "disagreement_points": ["Optimal weekly duration is disputed"],
  "knowledge_gaps": ["Long-term effects in older adults"],
  "synthesized_answer": "Regular exercise measurably improves cardiovascular health.",
  "confidence_range": "high",
  "confidence_reasoning": "All agents agree on the core claim.",
  "verification_needed": ["Claimed 30% risk reduction figure"],
  "reasoning_trace": "Compared all three answers point by point."
}` + "\n```"

func TestSynthesizeParsesFencedJSON(t *testing.T) {
	s := NewSynthesizer(&reasoner.MockReasoner{
		Text:  structuredCompletion,
		Usage: schema.Usage{PromptTokens: 900, CompletionTokens: 300},
	})

	successes := map[string]*schema.Response{
		"a": mkResponse("a", schema.ConfidenceHigh, "Exercise improves cardiovascular health"),
	}

	synth, err := s.Synthesize(context.Background(), "does exercise help the heart", schema.DomainHealthcare, successes, nil)
	require.NoError(t, err)

	assert.False(t, synth.Degraded)
	assert.Equal(t, []string{"Exercise improves cardiovascular health"}, synth.Consensus)
	assert.Equal(t, []string{"Optimal weekly duration is disputed"}, synth.Disagreements)
	assert.Equal(t, []string{"Long-term effects in older adults"}, synth.KnowledgeGaps)
	assert.Equal(t, []string{"Claimed 30% risk reduction figure"}, synth.VerificationNeeded)
	assert.Equal(t, "Regular exercise measurably improves cardiovascular health.", synth.SynthesizedAnswer)
	assert.Equal(t, schema.ConfidenceHigh, synth.Confidence)
	assert.Equal(t, "All agents agree on the core claim.", synth.ConfidenceReasoning)
	assert.Equal(t, 1200, synth.Usage.TotalTokens)
}

func TestSynthesizeParsesBareJSON(t *testing.T) {
	bare := strings.TrimSuffix(strings.TrimPrefix(structuredCompletion, "```json\n"), "\n```")
	s := NewSynthesizer(&reasoner.MockReasoner{Text: bare})

	successes := map[string]*schema.Response{
		"a": mkResponse("a", schema.ConfidenceHigh, "point"),
	}

	synth, err := s.Synthesize(context.Background(), "q", schema.DomainGeneral, successes, nil)
	require.NoError(t, err)
	assert.False(t, synth.Degraded)
	assert.Equal(t, schema.ConfidenceHigh, synth.Confidence)
}

func TestSynthesizeDegradedParse(t *testing.T) {
	plain := "The agents broadly agree that exercise helps, though they differ on dosage."
	s := NewSynthesizer(&reasoner.MockReasoner{Text: plain})

	successes := map[string]*schema.Response{
		"a": mkResponse("a", schema.ConfidenceHigh, "point"),
	}

	synth, err := s.Synthesize(context.Background(), "q", schema.DomainGeneral, successes, nil)
	require.NoError(t, err)

	assert.True(t, synth.Degraded)
	assert.Equal(t, plain, synth.SynthesizedAnswer)
	assert.Equal(t, schema.ConfidenceMedium, synth.Confidence)
	assert.Empty(t, synth.Consensus)
}

func TestSynthesizeCallFailure(t *testing.T) {
	s := NewSynthesizer(&reasoner.MockReasoner{Err: errors.New("connection refused")})

	successes := map[string]*schema.Response{
		"a": mkResponse("a", schema.ConfidenceHigh, "point"),
	}

	_, err := s.Synthesize(context.Background(), "q", schema.DomainGeneral, successes, nil)
	var synthErr *SynthesizerError
	require.ErrorAs(t, err, &synthErr)
}

func TestSynthesizeNoResponses(t *testing.T) {
	s := NewSynthesizer(&reasoner.MockReasoner{Text: "anything"})
	_, err := s.Synthesize(context.Background(), "q", schema.DomainGeneral, nil, nil)
	var synthErr *SynthesizerError
	require.ErrorAs(t, err, &synthErr)
}

func TestBuildSynthesisPromptOrderAndContext(t *testing.T) {
	successes := map[string]*schema.Response{
		"openai": mkResponse("openai", schema.ConfidenceHigh, "first point"),
		"google": mkResponse("google", schema.ConfidenceMedium, "second point"),
	}
	toolCtx := &ToolContext{
		ToolsUsed:    map[string]string{"web_search": "3 queries"},
		ResearchPlan: "compare recent studies",
	}

	prompt := buildSynthesisPrompt("does exercise help", successes, toolCtx)

	// Agents appear in sorted order so the prompt is reproducible.
	assert.Less(t, strings.Index(prompt, "### google"), strings.Index(prompt, "### openai"))
	assert.Contains(t, prompt, "does exercise help")
	assert.Contains(t, prompt, "web_search")
	assert.Contains(t, prompt, "compare recent studies")
	assert.Contains(t, prompt, `"confidence_range"`)
}

func TestParseSynthesisMalformedFencedBlock(t *testing.T) {
	// A fenced block that is not valid JSON falls through to the degraded
	// path rather than erroring.
	text := "```json\n{not json at all\n```"
	synth := parseSynthesis(text)
	assert.True(t, synth.Degraded)
	assert.NotEmpty(t, synth.SynthesizedAnswer)
}
