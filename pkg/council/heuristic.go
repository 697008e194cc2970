package council

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zen-systems/quorum/pkg/schema"
)

// defaultSimilarityThreshold is the token-set overlap ratio above which two
// key points from different agents count as the same claim.
const defaultSimilarityThreshold = 0.5

// HeuristicAggregator is the deterministic, rule-based aggregation strategy.
// It is pure: no I/O, no external calls, and byte-identical output for
// identical input.
type HeuristicAggregator struct {
	threshold float64
}

// NewHeuristicAggregator creates an aggregator with the default similarity
// threshold.
func NewHeuristicAggregator() *HeuristicAggregator {
	return &HeuristicAggregator{threshold: defaultSimilarityThreshold}
}

// candidate is one agent's key point in normalized form.
type candidate struct {
	agentID string
	raw     string
	tokens  map[string]struct{}
}

// consensusEntry is a promoted claim plus the phrasing chosen to represent
// it. Longer phrasings win because they carry more detail.
type consensusEntry struct {
	raw    string
	tokens map[string]struct{}
}

// Aggregate computes consensus points, disagreement points, and an overall
// confidence from the successful responses.
//
// Callers must not invoke it with an empty map; the council only reaches
// aggregation after observing at least one success.
//
// A key point is promoted to consensus when its best token-overlap match
// across at least one other agent meets the threshold. Unmatched points are
// surfaced as disagreements only when they lexically conflict with a
// consensus entry on a shared topic token; otherwise they are dropped as
// agent-specific detail.
func (h *HeuristicAggregator) Aggregate(successes map[string]*schema.Response) (consensus, disagreements []string, confidence schema.Confidence) {
	if len(successes) == 0 {
		return nil, nil, schema.ConfidenceLow
	}

	// Canonical traversal order keeps tie-breaking reproducible.
	ids := sortedAgentIDs(successes)

	var candidates []candidate
	for _, id := range ids {
		for _, point := range successes[id].KeyPoints {
			norm := normalizeText(point)
			if norm == "" {
				continue
			}
			candidates = append(candidates, candidate{
				agentID: id,
				raw:     strings.TrimSpace(point),
				tokens:  tokenSet(norm),
			})
		}
	}

	var entries []*consensusEntry
	var unmatched []candidate

	for i, cand := range candidates {
		best := 0.0
		for j, other := range candidates {
			if i == j || other.agentID == cand.agentID {
				continue
			}
			if sim := overlapRatio(cand.tokens, other.tokens); sim > best {
				best = sim
			}
		}
		if best >= h.threshold {
			promote(&entries, cand, h.threshold)
		} else {
			unmatched = append(unmatched, cand)
		}
	}

	for _, e := range entries {
		consensus = append(consensus, e.raw)
	}

	for _, cand := range unmatched {
		for _, e := range entries {
			if conflictsWith(cand, e) {
				disagreements = append(disagreements,
					fmt.Sprintf("%s: %q conflicts with consensus %q", cand.agentID, cand.raw, e.raw))
				break
			}
		}
	}

	return consensus, disagreements, medianConfidence(successes, ids)
}

// promote folds a matched candidate into the consensus entries, merging it
// with an existing entry when they describe the same claim. The earliest
// entry keeps its position; the longest phrasing wins.
func promote(entries *[]*consensusEntry, cand candidate, threshold float64) {
	for _, e := range *entries {
		if overlapRatio(cand.tokens, e.tokens) >= threshold {
			if len(cand.raw) > len(e.raw) {
				e.raw = cand.raw
				e.tokens = cand.tokens
			}
			return
		}
	}
	*entries = append(*entries, &consensusEntry{raw: cand.raw, tokens: cand.tokens})
}

// conflictsWith reports whether an unmatched point contradicts a consensus
// entry: they share a topic token but disagree on polarity (exactly one side
// carries a negation marker).
func conflictsWith(cand candidate, e *consensusEntry) bool {
	shared := false
	for tok := range cand.tokens {
		if _, ok := e.tokens[tok]; ok && isTopicToken(tok) {
			shared = true
			break
		}
	}
	if !shared {
		return false
	}
	return hasNegation(cand.tokens) != hasNegation(e.tokens)
}

// medianConfidence maps each confidence to its ordinal and takes the
// rounded-down median, biasing ties toward the lower level.
func medianConfidence(successes map[string]*schema.Response, ids []string) schema.Confidence {
	ordinals := make([]int, 0, len(ids))
	for _, id := range ids {
		ordinals = append(ordinals, successes[id].Confidence.Ordinal())
	}
	sort.Ints(ordinals)
	return schema.ConfidenceFromOrdinal(ordinals[(len(ordinals)-1)/2])
}

func sortedAgentIDs(successes map[string]*schema.Response) []string {
	ids := make([]string, 0, len(successes))
	for id := range successes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// normalizeText lower-cases and collapses whitespace.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func tokenSet(norm string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(norm) {
		tok = strings.Trim(tok, `.,;:!?()[]"'`)
		if tok != "" {
			set[tok] = struct{}{}
		}
	}
	return set
}

// overlapRatio is the Jaccard similarity of two token sets.
func overlapRatio(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

var stopTokens = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {},
	"from": {}, "have": {}, "has": {}, "are": {}, "was": {}, "were": {},
	"been": {}, "more": {}, "than": {}, "into": {}, "about": {}, "over": {},
	"your": {}, "their": {}, "such": {}, "very": {}, "also": {}, "both": {},
}

func isTopicToken(tok string) bool {
	if len(tok) < 4 {
		return false
	}
	_, stop := stopTokens[tok]
	return !stop
}

var negationTokens = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "cannot": {}, "can't": {},
	"isn't": {}, "doesn't": {}, "don't": {}, "won't": {}, "without": {},
	"unlikely": {}, "harmful": {}, "unsafe": {}, "avoid": {}, "against": {},
	"decreases": {}, "worsens": {}, "lowers": {}, "reduces": {},
}

func hasNegation(tokens map[string]struct{}) bool {
	for tok := range tokens {
		if _, ok := negationTokens[tok]; ok {
			return true
		}
	}
	return false
}
