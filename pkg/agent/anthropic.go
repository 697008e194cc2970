package agent

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/zen-systems/quorum/pkg/schema"
)

// AnthropicAgent implements the Agent interface for Claude models.
type AnthropicAgent struct {
	client anthropic.Client
	model  string
}

// NewAnthropicAgent creates a new Anthropic research agent.
func NewAnthropicAgent(apiKey, model string) (*AnthropicAgent, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicAgent{client: client, model: model}, nil
}

// ID returns the agent identifier.
func (a *AnthropicAgent) ID() string {
	return "anthropic"
}

// Model returns the configured model name.
func (a *AnthropicAgent) Model() string {
	return a.model
}

// Research sends the query to Claude and returns the structured response.
func (a *AnthropicAgent) Research(ctx context.Context, query string, domain schema.Domain, maxTokens int) (*schema.Response, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(clampMaxTokens(maxTokens)),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt(domain)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt(query))),
		},
	})
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("anthropic API error: %w", err)}
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	parsed, err := parseResponse(a.ID(), a.model, query, domain, content)
	if err != nil {
		return nil, err
	}
	parsed.Usage = schema.Usage{
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}.Normalize()
	return parsed, nil
}
