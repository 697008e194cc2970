// Package council implements the fan-out/fan-in research engine: a
// concurrent dispatcher over independent agents, a deterministic heuristic
// aggregator, and an LLM-based synthesizer with structured-output parsing.
package council

import (
	"context"
	"errors"

	"github.com/zen-systems/quorum/pkg/agent"
	"github.com/zen-systems/quorum/pkg/schema"
)

// FailureKind classifies why an agent invocation failed.
type FailureKind string

const (
	FailureTimeout         FailureKind = "timeout"
	FailureTransport       FailureKind = "transport"
	FailureInvalidResponse FailureKind = "invalid_response"
	FailureUnknown         FailureKind = "unknown"
)

// Failure records a single agent's failure.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Outcome is the settled state of one agent invocation. Exactly one of
// Response and Failure is populated; an Outcome is never mutated after the
// dispatcher creates it.
type Outcome struct {
	AgentID  string
	Response *schema.Response
	Failure  *Failure
}

// Succeeded reports whether the agent produced a valid response.
func (o Outcome) Succeeded() bool {
	return o.Response != nil
}

// classifyFailure maps an agent error onto the failure taxonomy.
func classifyFailure(err error) Failure {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || agent.IsTimeout(err):
		return Failure{Kind: FailureTimeout, Message: err.Error()}
	case agent.IsInvalidResponse(err):
		return Failure{Kind: FailureInvalidResponse, Message: err.Error()}
	case agent.IsTransport(err):
		return Failure{Kind: FailureTransport, Message: err.Error()}
	default:
		return Failure{Kind: FailureUnknown, Message: err.Error()}
	}
}
