package reasoner

import (
	"context"

	"github.com/zen-systems/quorum/pkg/schema"
)

// MockReasoner returns a canned completion for tests and local runs.
type MockReasoner struct {
	Text  string
	Usage schema.Usage
	Err   error
}

// Model returns the mock model name.
func (m *MockReasoner) Model() string {
	return "mock-reasoner"
}

// Complete returns the canned completion or error.
func (m *MockReasoner) Complete(ctx context.Context, prompt string) (*Completion, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &Completion{Text: m.Text, Usage: m.Usage.Normalize()}, nil
}
