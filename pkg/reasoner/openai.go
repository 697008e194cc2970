package reasoner

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/zen-systems/quorum/pkg/schema"
)

// OpenAIReasoner calls an OpenAI reasoning-capable model (gpt-4o, o1, o3
// family). Sampling controls are deliberately left at provider defaults; the
// synthesis contract assumes deterministic-leaning reasoning behavior.
type OpenAIReasoner struct {
	client openai.Client
	model  string
}

// NewOpenAIReasoner creates a reasoner backed by the given model.
func NewOpenAIReasoner(apiKey, model string) (*OpenAIReasoner, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if model == "" {
		model = "gpt-4o"
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIReasoner{client: client, model: model}, nil
}

// Model returns the reasoning model name.
func (r *OpenAIReasoner) Model() string {
	return r.model
}

// Complete sends the prompt and returns the completion text with usage.
// Reasoning calls routinely take tens of seconds; callers should budget a
// deadline well above worker-agent timeouts.
func (r *OpenAIReasoner) Complete(ctx context.Context, prompt string) (*Completion, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(r.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	// o-series models reject explicit token caps and sampling parameters;
	// for chat models, leave room for a full structured synthesis.
	if !strings.HasPrefix(r.model, "o1") && !strings.HasPrefix(r.model, "o3") {
		params.MaxCompletionTokens = openai.Int(4000)
	}

	resp, err := r.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	return &Completion{
		Text: resp.Choices[0].Message.Content,
		Usage: schema.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		}.Normalize(),
	}, nil
}
