package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CouncilConfig holds the council runtime settings: which agents sit on the
// council, dispatch limits, the synthesizer, pricing, and history storage.
type CouncilConfig struct {
	Agents                 []AgentSpec       `yaml:"agents"`
	PerAgentTimeoutSeconds int               `yaml:"per_agent_timeout_seconds,omitempty"`
	MaxInFlight            int               `yaml:"max_in_flight,omitempty"`
	MaxTokens              int               `yaml:"max_tokens,omitempty"`
	Synthesizer            SynthesizerConfig `yaml:"synthesizer,omitempty"`
	Pricing                PricingConfig     `yaml:"pricing,omitempty"`
	History                HistoryConfig     `yaml:"history,omitempty"`
}

// AgentSpec names one council seat: the provider and the model it runs.
type AgentSpec struct {
	ID    string `yaml:"id"`
	Model string `yaml:"model,omitempty"`
}

// SynthesizerConfig controls the LLM-based aggregation strategy.
type SynthesizerConfig struct {
	Enabled        *bool  `yaml:"enabled,omitempty"`
	Model          string `yaml:"model,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
}

// HistoryConfig points at the optional Postgres run-history store.
type HistoryConfig struct {
	DSN string `yaml:"dsn,omitempty"`
}

// PerAgentTimeout returns the per-agent dispatch deadline.
func (c *CouncilConfig) PerAgentTimeout() time.Duration {
	if c.PerAgentTimeoutSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.PerAgentTimeoutSeconds) * time.Second
}

// SynthesisTimeout returns the synthesizer call deadline, which sits well
// above the per-agent timeout because reasoning calls are slow by design.
func (c *CouncilConfig) SynthesisTimeout() time.Duration {
	if c.Synthesizer.TimeoutSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Synthesizer.TimeoutSeconds) * time.Second
}

// SynthesizerEnabled reports whether the synthesizer strategy should be
// used. It defaults to on.
func (c *CouncilConfig) SynthesizerEnabled() bool {
	if c.Synthesizer.Enabled == nil {
		return true
	}
	return *c.Synthesizer.Enabled
}

// Validate checks the agent list for structural problems.
func (c *CouncilConfig) Validate() error {
	seen := make(map[string]struct{}, len(c.Agents))
	for _, spec := range c.Agents {
		if spec.ID == "" {
			return fmt.Errorf("agent spec missing id")
		}
		if _, dup := seen[spec.ID]; dup {
			return fmt.Errorf("duplicate agent id %q", spec.ID)
		}
		seen[spec.ID] = struct{}{}
	}
	return nil
}

// LoadCouncilConfig reads council configuration from a YAML file.
func LoadCouncilConfig(path string) (*CouncilConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg CouncilConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultCouncilConfig returns the default council: every provider seat that
// ships an agent implementation, priced at published per-1k rates.
func DefaultCouncilConfig() *CouncilConfig {
	return &CouncilConfig{
		Agents: []AgentSpec{
			{ID: "openai", Model: "gpt-4o"},
			{ID: "google", Model: "gemini-2.5-flash"},
			{ID: "anthropic", Model: "claude-sonnet-4-20250514"},
			{ID: "deepseek", Model: "deepseek-chat"},
		},
		PerAgentTimeoutSeconds: 120,
		MaxTokens:              500,
		Synthesizer: SynthesizerConfig{
			Model:          "gpt-4o",
			TimeoutSeconds: 300,
		},
		Pricing: PricingConfig{
			"openai": {
				"gpt-4o": {PromptPer1K: 0.0025, CompletionPer1K: 0.01},
			},
			"google": {
				"gemini-2.5-flash": {PromptPer1K: 0, CompletionPer1K: 0},
			},
			"anthropic": {
				"claude-sonnet-4-20250514": {PromptPer1K: 0.003, CompletionPer1K: 0.015},
			},
			"deepseek": {
				"default": {PromptPer1K: 0.00027, CompletionPer1K: 0.0011},
			},
			"synthesizer": {
				"gpt-4o":  {PromptPer1K: 0.0025, CompletionPer1K: 0.01},
				"o1-mini": {PromptPer1K: 0.003, CompletionPer1K: 0.012},
				"default": {PromptPer1K: 0.003, CompletionPer1K: 0.012},
			},
		},
	}
}
