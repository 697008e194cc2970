package agent

import (
	"context"
	"time"

	"github.com/zen-systems/quorum/pkg/schema"
)

// MockAgent returns deterministic responses for local runs and tests.
type MockAgent struct {
	AgentID    string
	ModelName  string
	Answer     string
	KeyPoints  []string
	Confidence schema.Confidence
	Usage      schema.Usage
	Err        error
	Delay      time.Duration
}

// NewMockAgent creates a mock agent with a canned answer.
func NewMockAgent(id, answer string, keyPoints ...string) *MockAgent {
	return &MockAgent{
		AgentID:    id,
		ModelName:  "mock-1",
		Answer:     answer,
		KeyPoints:  keyPoints,
		Confidence: schema.ConfidenceMedium,
	}
}

// ID returns the agent identifier.
func (a *MockAgent) ID() string {
	return a.AgentID
}

// Model returns the mock model name.
func (a *MockAgent) Model() string {
	if a.ModelName == "" {
		return "mock-1"
	}
	return a.ModelName
}

// Research returns the canned response, the canned error, or blocks until
// the context expires when a delay longer than the deadline is configured.
func (a *MockAgent) Research(ctx context.Context, query string, domain schema.Domain, maxTokens int) (*schema.Response, error) {
	if a.Delay > 0 {
		select {
		case <-time.After(a.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if a.Err != nil {
		return nil, a.Err
	}
	return &schema.Response{
		AgentID:    a.AgentID,
		Model:      a.Model(),
		Query:      query,
		Domain:     domain,
		Answer:     a.Answer,
		KeyPoints:  a.KeyPoints,
		Confidence: a.Confidence,
		Usage:      a.Usage.Normalize(),
		Timestamp:  time.Now().UTC(),
	}, nil
}
