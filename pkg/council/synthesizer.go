package council

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zen-systems/quorum/pkg/reasoner"
	"github.com/zen-systems/quorum/pkg/schema"
)

// defaultSynthesisTimeout bounds the synthesizer's own call. Reasoning
// models take seconds to tens of seconds, so this deadline sits well above
// the per-agent timeout.
const defaultSynthesisTimeout = 5 * time.Minute

// ToolContext carries optional external context (tool outputs, research
// plan) into the synthesis prompt.
type ToolContext struct {
	ToolsUsed    map[string]string
	ResearchPlan string
}

// Synthesis is the parsed output of one synthesizer call.
type Synthesis struct {
	Consensus           []string
	Disagreements       []string
	KnowledgeGaps       []string
	VerificationNeeded  []string
	SynthesizedAnswer   string
	Confidence          schema.Confidence
	ConfidenceReasoning string
	ReasoningTrace      string

	// Degraded is set when the structured block could not be parsed and the
	// completion text was salvaged as the synthesized answer.
	Degraded bool

	Usage schema.Usage
}

// Synthesizer is the LLM-reasoning-based aggregation strategy. It delegates
// consensus analysis to a reasoning-capable model and parses its structured
// output, degrading gracefully when the output is unparseable.
type Synthesizer struct {
	r       reasoner.Reasoner
	timeout time.Duration
}

// SynthesizerOption customizes a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithSynthesisTimeout overrides the synthesizer call deadline.
func WithSynthesisTimeout(d time.Duration) SynthesizerOption {
	return func(s *Synthesizer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewSynthesizer creates a Synthesizer backed by the given reasoner.
func NewSynthesizer(r reasoner.Reasoner, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{r: r, timeout: defaultSynthesisTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model returns the underlying reasoning model name.
func (s *Synthesizer) Model() string {
	return s.r.Model()
}

// Synthesize runs one reasoning call over the successful responses and
// parses the result. It returns a SynthesizerError only when the call itself
// fails; an unparseable completion is a degraded, non-fatal outcome logged
// as a data-quality event.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, domain schema.Domain, successes map[string]*schema.Response, toolCtx *ToolContext) (*Synthesis, error) {
	if len(successes) == 0 {
		return nil, &SynthesizerError{Err: fmt.Errorf("no responses to synthesize")}
	}

	prompt := buildSynthesisPrompt(query, successes, toolCtx)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	completion, err := s.r.Complete(callCtx, prompt)
	if err != nil {
		return nil, &SynthesizerError{Err: err}
	}

	synth := parseSynthesis(completion.Text)
	synth.Usage = completion.Usage.Normalize()
	if synth.Degraded {
		log.Warn().
			Str("event", "synthesis_parse_degraded").
			Str("model", s.r.Model()).
			Int("completion_tokens", synth.Usage.CompletionTokens).
			Msg("synthesis output not parseable, salvaged as plain answer")
	}
	return synth, nil
}

// buildSynthesisPrompt embeds every agent's answer in canonical sorted-agent
// order plus the structured-output instructions.
func buildSynthesisPrompt(query string, successes map[string]*schema.Response, toolCtx *ToolContext) string {
	var b strings.Builder

	b.WriteString("# Research Synthesis Task\n\n")
	b.WriteString("## Original Query\n")
	b.WriteString(query)
	b.WriteString("\n\n## Agent Responses\n\n")

	for _, id := range sortedAgentIDs(successes) {
		resp := successes[id]
		fmt.Fprintf(&b, "### %s\n", id)
		fmt.Fprintf(&b, "**Answer:** %s\n", resp.Answer)
		fmt.Fprintf(&b, "**Confidence:** %s\n", resp.Confidence)
		b.WriteString("**Key Points:**\n")
		for _, point := range resp.KeyPoints {
			fmt.Fprintf(&b, "  - %s\n", point)
		}
		b.WriteString("\n")
	}

	if toolCtx != nil {
		if len(toolCtx.ToolsUsed) > 0 {
			b.WriteString("## Tools Used\n")
			for _, tool := range sortedKeys(toolCtx.ToolsUsed) {
				fmt.Fprintf(&b, "- **%s**: %s\n", tool, toolCtx.ToolsUsed[tool])
			}
			b.WriteString("\n")
		}
		if toolCtx.ResearchPlan != "" {
			fmt.Fprintf(&b, "## Research Plan\n%s\n\n", toolCtx.ResearchPlan)
		}
	}

	b.WriteString(synthesisInstructions)
	return b.String()
}

const synthesisInstructions = `## Your Task

As a master research synthesizer, deeply analyze all agent responses and provide:

1. Consensus points where agents genuinely agree (semantic agreement, not word matching), each with a short justification.
2. Meaningful disagreements with the root cause of each.
3. Knowledge gaps: areas where the agents lack complete information.
4. A coherent synthesized answer integrating all insights.
5. An overall confidence level (low, medium, high, or very_high) with reasoning.
6. Specific claims that need external verification.

## Output Format

Respond with a JSON object using this exact structure:

` + "```json" + `
{
  "consensus_points": ["..."],
  "disagreement_points": ["..."],
  "knowledge_gaps": ["..."],
  "synthesized_answer": "...",
  "confidence_range": "medium",
  "confidence_reasoning": "...",
  "verification_needed": ["..."],
  "reasoning_trace": "..."
}
` + "```" + `

Output ONLY the JSON, no additional text. Be honest about uncertainties and prioritize accuracy over confidence.`

// synthesisPayload mirrors the JSON contract the reasoning model is asked
// to return.
type synthesisPayload struct {
	ConsensusPoints     []string `json:"consensus_points"`
	DisagreementPoints  []string `json:"disagreement_points"`
	KnowledgeGaps       []string `json:"knowledge_gaps"`
	SynthesizedAnswer   string   `json:"synthesized_answer"`
	ConfidenceRange     string   `json:"confidence_range"`
	ConfidenceReasoning string   `json:"confidence_reasoning"`
	VerificationNeeded  []string `json:"verification_needed"`
	ReasoningTrace      string   `json:"reasoning_trace"`
}

var synthFencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\n```")

// parseSynthesis tries a fenced JSON block first, then the whole text as
// JSON, then falls back to treating the text as a plain answer.
func parseSynthesis(text string) *Synthesis {
	trimmed := strings.TrimSpace(text)

	if match := synthFencedJSON.FindStringSubmatch(trimmed); match != nil {
		var payload synthesisPayload
		if err := json.Unmarshal([]byte(match[1]), &payload); err == nil && payload.SynthesizedAnswer != "" {
			return fromPayload(payload)
		}
	}

	var payload synthesisPayload
	if err := json.Unmarshal([]byte(trimmed), &payload); err == nil && payload.SynthesizedAnswer != "" {
		return fromPayload(payload)
	}

	// Degraded path: the whole completion becomes the answer and the richer
	// fields stay empty.
	return &Synthesis{
		SynthesizedAnswer: trimmed,
		Confidence:        schema.ConfidenceMedium,
		Degraded:          true,
	}
}

func fromPayload(p synthesisPayload) *Synthesis {
	return &Synthesis{
		Consensus:           p.ConsensusPoints,
		Disagreements:       p.DisagreementPoints,
		KnowledgeGaps:       p.KnowledgeGaps,
		VerificationNeeded:  p.VerificationNeeded,
		SynthesizedAnswer:   strings.TrimSpace(p.SynthesizedAnswer),
		Confidence:          schema.ParseConfidence(p.ConfidenceRange),
		ConfidenceReasoning: p.ConfidenceReasoning,
		ReasoningTrace:      p.ReasoningTrace,
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
