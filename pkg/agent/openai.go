package agent

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/zen-systems/quorum/pkg/schema"
)

// OpenAIAgent implements the Agent interface for GPT models.
type OpenAIAgent struct {
	client openai.Client
	model  string
}

// NewOpenAIAgent creates a new OpenAI research agent.
func NewOpenAIAgent(apiKey, model string) (*OpenAIAgent, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if model == "" {
		model = "gpt-4o"
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIAgent{client: client, model: model}, nil
}

// ID returns the agent identifier.
func (a *OpenAIAgent) ID() string {
	return "openai"
}

// Model returns the configured model name.
func (a *OpenAIAgent) Model() string {
	return a.model
}

// Research sends the query to OpenAI and returns the structured response.
func (a *OpenAIAgent) Research(ctx context.Context, query string, domain schema.Domain, maxTokens int) (*schema.Response, error) {
	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(domain)),
			openai.UserMessage(userPrompt(query)),
		},
		MaxCompletionTokens: openai.Int(int64(clampMaxTokens(maxTokens))),
	})
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("openai API error: %w", err)}
	}

	if len(resp.Choices) == 0 {
		return nil, &InvalidResponseError{Reason: "openai returned no choices"}
	}

	parsed, err := parseResponse(a.ID(), a.model, query, domain, resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	parsed.Usage = schema.Usage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}.Normalize()
	return parsed, nil
}
