// Package agent defines the research agent capability and its concrete
// provider implementations (OpenAI, Google Gemini, Anthropic, DeepSeek).
package agent

import (
	"context"

	"github.com/zen-systems/quorum/pkg/schema"
)

// Agent is a single research-capable provider answering one query.
type Agent interface {
	// Research sends the query to the provider and returns a structured
	// response. Implementations must honor ctx cancellation.
	Research(ctx context.Context, query string, domain schema.Domain, maxTokens int) (*schema.Response, error)

	// ID returns the agent's identifier, unique within a council.
	ID() string

	// Model returns the underlying model name.
	Model() string
}

// Info holds metadata about a configured agent.
type Info struct {
	ID    string
	Model string
}
