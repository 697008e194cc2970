package agent

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/zen-systems/quorum/pkg/schema"
)

const defaultMaxTokens = 500

var domainInstructions = map[schema.Domain]string{
	schema.DomainSports: `You are a sports research expert. Provide accurate information about
scores, statistics, player performances, standings, and sports news.
Focus on facts and verifiable data.`,
	schema.DomainFinance: `You are a financial research analyst. Provide informed insights about
market trends, economic indicators, investment risks, and financial news.
Always note that this is informational, not financial advice.`,
	schema.DomainShopping: `You are a product research specialist. Provide product comparisons,
price analysis, feature breakdowns, and balanced pros and cons.
Be objective and highlight both positives and negatives.`,
	schema.DomainHealthcare: `You are a healthcare research assistant. Provide evidence-based
information about health topics, treatments, and wellness.
Always recommend consulting healthcare professionals for medical decisions.`,
	schema.DomainGeneral: `You are a general research assistant. Provide accurate, well-sourced
information on the topic at hand.`,
}

// systemPrompt returns the domain-specialised system prompt shared by all
// provider agents.
func systemPrompt(domain schema.Domain) string {
	instructions, ok := domainInstructions[domain]
	if !ok {
		instructions = domainInstructions[schema.DomainGeneral]
	}
	return instructions + `

Respond with a single JSON object, no additional text:
{
  "answer": "your research findings as clear prose",
  "key_points": ["main takeaway one", "main takeaway two"],
  "confidence": "low | medium | high | very_high",
  "sources": ["optional URLs or references"]
}`
}

// workerPayload is the structured contract every worker agent must return.
type workerPayload struct {
	Answer     string   `json:"answer"`
	KeyPoints  []string `json:"key_points"`
	Confidence string   `json:"confidence"`
	Sources    []string `json:"sources"`
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\n```")

// parseResponse validates the raw completion text against the worker
// contract and builds an immutable Response. A payload that cannot be parsed
// or is missing its answer is an InvalidResponseError.
func parseResponse(agentID, model, query string, domain schema.Domain, raw string) (*schema.Response, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, &InvalidResponseError{Reason: "empty completion"}
	}

	var payload workerPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		if match := fencedJSON.FindStringSubmatch(text); match != nil {
			if err := json.Unmarshal([]byte(match[1]), &payload); err != nil {
				return nil, &InvalidResponseError{Reason: "malformed JSON block", Err: err}
			}
		} else {
			return nil, &InvalidResponseError{Reason: "no JSON object found", Err: err}
		}
	}

	if strings.TrimSpace(payload.Answer) == "" {
		return nil, &InvalidResponseError{Reason: "answer field missing or empty"}
	}

	return &schema.Response{
		AgentID:    agentID,
		Model:      model,
		Query:      query,
		Domain:     domain,
		Answer:     strings.TrimSpace(payload.Answer),
		KeyPoints:  payload.KeyPoints,
		Confidence: schema.ParseConfidence(payload.Confidence),
		Sources:    payload.Sources,
		Timestamp:  time.Now().UTC(),
	}, nil
}

func clampMaxTokens(maxTokens int) int {
	if maxTokens <= 0 {
		return defaultMaxTokens
	}
	return maxTokens
}

func userPrompt(query string) string {
	return fmt.Sprintf("Research the following question and respond in the required JSON format.\n\nQuestion: %s", query)
}
