// Package schema defines the data model shared by the council: per-agent
// research responses and the merged result produced by aggregation.
package schema

import "time"

// Domain identifies the research area a query belongs to. Agents use it to
// specialise their system prompts.
type Domain string

const (
	DomainSports     Domain = "sports"
	DomainFinance    Domain = "finance"
	DomainShopping   Domain = "shopping"
	DomainHealthcare Domain = "healthcare"
	DomainGeneral    Domain = "general"
)

// ParseDomain maps a string to a known Domain, defaulting to general.
func ParseDomain(s string) Domain {
	switch Domain(s) {
	case DomainSports, DomainFinance, DomainShopping, DomainHealthcare:
		return Domain(s)
	default:
		return DomainGeneral
	}
}

// Confidence is an ordered confidence level reported by an agent or assigned
// to a merged result.
type Confidence string

const (
	ConfidenceLow      Confidence = "low"
	ConfidenceMedium   Confidence = "medium"
	ConfidenceHigh     Confidence = "high"
	ConfidenceVeryHigh Confidence = "very_high"
)

// Ordinal returns the position of c in the low..very_high ordering.
// Unknown values map to medium.
func (c Confidence) Ordinal() int {
	switch c {
	case ConfidenceLow:
		return 0
	case ConfidenceMedium:
		return 1
	case ConfidenceHigh:
		return 2
	case ConfidenceVeryHigh:
		return 3
	default:
		return 1
	}
}

// ConfidenceFromOrdinal is the inverse of Ordinal. Out-of-range values clamp.
func ConfidenceFromOrdinal(n int) Confidence {
	switch {
	case n <= 0:
		return ConfidenceLow
	case n == 1:
		return ConfidenceMedium
	case n == 2:
		return ConfidenceHigh
	default:
		return ConfidenceVeryHigh
	}
}

// ParseConfidence maps a string to a known Confidence, defaulting to medium.
func ParseConfidence(s string) Confidence {
	switch Confidence(s) {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh, ConfidenceVeryHigh:
		return Confidence(s)
	default:
		return ConfidenceMedium
	}
}

// Usage captures normalized token usage for one model call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add returns the componentwise sum of two usages.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}

// Normalize fills in TotalTokens when the provider only reported the split.
func (u Usage) Normalize() Usage {
	if u.TotalTokens == 0 && (u.PromptTokens > 0 || u.CompletionTokens > 0) {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	return u
}

// Response is one agent's answer to one query. Immutable once produced.
type Response struct {
	AgentID    string     `json:"agent_id"`
	Model      string     `json:"model"`
	Query      string     `json:"query"`
	Domain     Domain     `json:"domain"`
	Answer     string     `json:"answer"`
	KeyPoints  []string   `json:"key_points"`
	Confidence Confidence `json:"confidence"`
	Usage      Usage      `json:"usage"`
	Sources    []string   `json:"sources,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Strategy names the aggregation path that produced a MergedResult.
type Strategy string

const (
	StrategyHeuristic   Strategy = "heuristic"
	StrategySynthesizer Strategy = "synthesizer"
)

// MergedResult is the final aggregate for one council run. It is built once
// by the council and never mutated afterwards.
//
// Invariant: SuccessfulAgents + len(FailedAgents) == TotalAgents, and the
// keys of Responses are exactly the successful agent identifiers.
type MergedResult struct {
	ID     string `json:"id"`
	Query  string `json:"query"`
	Domain Domain `json:"domain"`

	Responses map[string]*Response `json:"responses"`

	TotalAgents      int      `json:"total_agents"`
	SuccessfulAgents int      `json:"successful_agents"`
	FailedAgents     []string `json:"failed_agents"`

	Consensus     []string `json:"consensus_points"`
	Disagreements []string `json:"disagreement_points"`

	// Synthesizer path only.
	KnowledgeGaps      []string `json:"knowledge_gaps,omitempty"`
	VerificationNeeded []string `json:"verification_needed,omitempty"`
	ReasoningTrace     string   `json:"reasoning_trace,omitempty"`

	Confidence          Confidence `json:"confidence"`
	ConfidenceReasoning string     `json:"confidence_reasoning,omitempty"`
	SynthesizedAnswer   string     `json:"synthesized_answer,omitempty"`

	// Strategy reports which aggregation path produced this result.
	// HeuristicFallback is set when the synthesizer was configured but its
	// call failed outright and the heuristic aggregator filled in.
	Strategy          Strategy `json:"strategy"`
	HeuristicFallback bool     `json:"heuristic_fallback,omitempty"`
	// SynthesisDegraded is set when the synthesizer answered but its output
	// could not be parsed as a structured block.
	SynthesisDegraded bool `json:"synthesis_degraded,omitempty"`

	Usage     Usage     `json:"usage"`
	CostUSD   float64   `json:"cost_usd"`
	Timestamp time.Time `json:"timestamp"`
}
