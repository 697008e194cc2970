package council

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/zen-systems/quorum/pkg/agent"
	"github.com/zen-systems/quorum/pkg/config"
	"github.com/zen-systems/quorum/pkg/schema"
)

// Council is the aggregation facade. It fans a query out to every agent,
// joins all outcomes, and merges the successes through either the
// synthesizer (when configured) or the heuristic aggregator.
type Council struct {
	agents     []agent.Agent
	dispatcher *Dispatcher
	heuristic  *HeuristicAggregator
	synth      *Synthesizer
	pricing    config.PricingConfig
}

// Option customizes a Council.
type Option func(*Council)

// WithDispatcher replaces the default dispatcher.
func WithDispatcher(d *Dispatcher) Option {
	return func(c *Council) {
		if d != nil {
			c.dispatcher = d
		}
	}
}

// WithSynthesizer enables the LLM-based aggregation strategy. Without it the
// council always aggregates heuristically.
func WithSynthesizer(s *Synthesizer) Option {
	return func(c *Council) {
		c.synth = s
	}
}

// WithPricing supplies the pricing table used for cost totals.
func WithPricing(p config.PricingConfig) Option {
	return func(c *Council) {
		c.pricing = p
	}
}

// New creates a Council over the given agents.
func New(agents []agent.Agent, opts ...Option) *Council {
	c := &Council{
		agents:     agents,
		dispatcher: NewDispatcher(),
		heuristic:  NewHeuristicAggregator(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Agents returns metadata for the configured agents.
func (c *Council) Agents() []agent.Info {
	infos := make([]agent.Info, 0, len(c.agents))
	for _, ag := range c.agents {
		infos = append(infos, agent.Info{ID: ag.ID(), Model: ag.Model()})
	}
	return infos
}

// Research dispatches the query to all agents, waits for every outcome, and
// merges the successes into a single result.
//
// It fails with ErrNoAgents when zero agents are configured and with
// AllFailedError when every dispatched agent failed; a partial success is
// always preferred over a hard failure.
func (c *Council) Research(ctx context.Context, query string, domain schema.Domain, maxTokens int) (*schema.MergedResult, error) {
	return c.ResearchWithContext(ctx, query, domain, maxTokens, nil)
}

// ResearchWithContext is Research with optional external tool context passed
// through to the synthesis prompt.
func (c *Council) ResearchWithContext(ctx context.Context, query string, domain schema.Domain, maxTokens int, toolCtx *ToolContext) (*schema.MergedResult, error) {
	if len(c.agents) == 0 {
		return nil, ErrNoAgents
	}

	outcomes, err := c.dispatcher.DispatchAll(ctx, c.agents, query, domain, maxTokens)
	if err != nil {
		return nil, err
	}

	successes := make(map[string]*schema.Response)
	failures := make(map[string]Failure)
	for id, outcome := range outcomes {
		if outcome.Succeeded() {
			successes[id] = outcome.Response
		} else {
			failures[id] = *outcome.Failure
		}
	}

	if len(successes) == 0 {
		return nil, &AllFailedError{Failures: failures}
	}

	failedIDs := make([]string, 0, len(failures))
	for id := range failures {
		failedIDs = append(failedIDs, id)
	}
	sort.Strings(failedIDs)

	tracker := newCostTracker(c.pricing)
	for _, id := range sortedAgentIDs(successes) {
		resp := successes[id]
		tracker.record(id, resp.Model, resp.Usage)
	}

	result := &schema.MergedResult{
		ID:               uuid.NewString(),
		Query:            query,
		Domain:           domain,
		Responses:        successes,
		TotalAgents:      len(c.agents),
		SuccessfulAgents: len(successes),
		FailedAgents:     failedIDs,
		Timestamp:        time.Now().UTC(),
	}

	if c.synth != nil {
		synth, synthErr := c.synth.Synthesize(ctx, query, domain, successes, toolCtx)
		if synthErr == nil {
			tracker.record("synthesizer", c.synth.Model(), synth.Usage)
			result.Strategy = schema.StrategySynthesizer
			result.Consensus = synth.Consensus
			result.Disagreements = synth.Disagreements
			result.KnowledgeGaps = synth.KnowledgeGaps
			result.VerificationNeeded = synth.VerificationNeeded
			result.SynthesizedAnswer = synth.SynthesizedAnswer
			result.Confidence = synth.Confidence
			result.ConfidenceReasoning = synth.ConfidenceReasoning
			result.ReasoningTrace = synth.ReasoningTrace
			result.SynthesisDegraded = synth.Degraded
			result.Usage = tracker.totalUsage
			result.CostUSD = tracker.totalUSD
			return result, nil
		}

		// An outright synthesizer failure degrades to the heuristic path
		// rather than failing a request that already has usable responses.
		log.Warn().Err(synthErr).Msg("synthesizer unavailable, falling back to heuristic aggregation")
		result.HeuristicFallback = true
	}

	consensus, disagreements, confidence := c.heuristic.Aggregate(successes)
	result.Strategy = schema.StrategyHeuristic
	result.Consensus = consensus
	result.Disagreements = disagreements
	result.Confidence = confidence
	result.SynthesizedAnswer = heuristicAnswer(successes, consensus)
	result.Usage = tracker.totalUsage
	result.CostUSD = tracker.totalUSD
	return result, nil
}

// heuristicAnswer composes a plain synthesized answer for the heuristic
// path: a lone response speaks for itself, otherwise the consensus points
// lead and the contributing agents are credited.
func heuristicAnswer(successes map[string]*schema.Response, consensus []string) string {
	ids := sortedAgentIDs(successes)
	if len(ids) == 1 {
		return successes[ids[0]].Answer
	}

	var b strings.Builder
	if len(consensus) > 0 {
		b.WriteString("Key consensus points: ")
		for i, point := range consensus {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(point)
			if i == 2 {
				break
			}
		}
		b.WriteString(". ")
	}
	fmt.Fprintf(&b, "Based on %d models (%s), this represents a combined view of their findings.",
		len(ids), strings.Join(ids, ", "))
	return b.String()
}
