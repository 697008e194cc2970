package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadCouncilConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "council.yaml")
	writeFile(t, path, `
agents:
  - id: openai
    model: gpt-4o
  - id: google
    model: gemini-2.5-flash
per_agent_timeout_seconds: 60
max_in_flight: 2
max_tokens: 800
synthesizer:
  model: o1-mini
  timeout_seconds: 120
history:
  dsn: postgres://localhost/quorum
`)

	cfg, err := LoadCouncilConfig(path)
	if err != nil {
		t.Fatalf("LoadCouncilConfig failed: %v", err)
	}

	if len(cfg.Agents) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(cfg.Agents))
	}
	if cfg.Agents[0].ID != "openai" || cfg.Agents[0].Model != "gpt-4o" {
		t.Errorf("unexpected first agent: %+v", cfg.Agents[0])
	}
	if cfg.PerAgentTimeout() != 60*time.Second {
		t.Errorf("unexpected per-agent timeout: %s", cfg.PerAgentTimeout())
	}
	if cfg.SynthesisTimeout() != 120*time.Second {
		t.Errorf("unexpected synthesis timeout: %s", cfg.SynthesisTimeout())
	}
	if cfg.MaxInFlight != 2 {
		t.Errorf("unexpected max in flight: %d", cfg.MaxInFlight)
	}
	if cfg.History.DSN != "postgres://localhost/quorum" {
		t.Errorf("unexpected history dsn: %q", cfg.History.DSN)
	}
}

func TestLoadCouncilConfigRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "council.yaml")
	writeFile(t, path, `
agents:
  - id: openai
  - id: openai
`)
	if _, err := LoadCouncilConfig(path); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestCouncilConfigDefaults(t *testing.T) {
	cfg := &CouncilConfig{}
	if cfg.PerAgentTimeout() != 120*time.Second {
		t.Errorf("default per-agent timeout: %s", cfg.PerAgentTimeout())
	}
	if cfg.SynthesisTimeout() != 5*time.Minute {
		t.Errorf("default synthesis timeout: %s", cfg.SynthesisTimeout())
	}
	if !cfg.SynthesizerEnabled() {
		t.Error("synthesizer should default to enabled")
	}

	disabled := false
	cfg.Synthesizer.Enabled = &disabled
	if cfg.SynthesizerEnabled() {
		t.Error("explicit false should disable the synthesizer")
	}
}

func TestPricingConfigFallback(t *testing.T) {
	pricing := PricingConfig{
		"deepseek": {
			"deepseek-reasoner": {PromptPer1K: 0.00055, CompletionPer1K: 0.00219},
			"default":           {PromptPer1K: 0.00027, CompletionPer1K: 0.0011},
		},
	}

	entry, ok := pricing.For("deepseek", "deepseek-reasoner")
	if !ok || entry.PromptPer1K != 0.00055 {
		t.Errorf("exact model lookup failed: %+v ok=%v", entry, ok)
	}

	entry, ok = pricing.For("deepseek", "deepseek-chat")
	if !ok || entry.PromptPer1K != 0.00027 {
		t.Errorf("default fallback failed: %+v ok=%v", entry, ok)
	}

	if _, ok := pricing.For("openai", "gpt-4o"); ok {
		t.Error("unknown agent should report no pricing")
	}

	var nilPricing PricingConfig
	if _, ok := nilPricing.For("a", "m"); ok {
		t.Error("nil pricing should report no pricing")
	}
}

func TestDefaultCouncilConfigValid(t *testing.T) {
	cfg := DefaultCouncilConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if _, ok := cfg.Pricing.For("synthesizer", "gpt-4o"); !ok {
		t.Error("default pricing should cover the synthesizer")
	}
}
