// Package reasoner provides the reasoning-model capability consumed by the
// council's synthesizer: a single prompt in, completion text plus token
// usage out. Calls are high-latency by design and must not be treated as
// hangs.
package reasoner

import (
	"context"

	"github.com/zen-systems/quorum/pkg/schema"
)

// Completion is the reasoning model's output.
type Completion struct {
	Text  string
	Usage schema.Usage
}

// Reasoner accepts a single prompt and returns the completion with usage
// metadata.
type Reasoner interface {
	Complete(ctx context.Context, prompt string) (*Completion, error)

	// Model returns the reasoning model name, used for pricing lookup.
	Model() string
}
