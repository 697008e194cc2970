package agent

import (
	"context"
	"fmt"

	"github.com/zen-systems/quorum/pkg/schema"
	"google.golang.org/genai"
)

// GoogleAgent implements the Agent interface for Gemini models.
type GoogleAgent struct {
	client *genai.Client
	model  string
}

// NewGoogleAgent creates a new Google Gemini research agent.
func NewGoogleAgent(apiKey, model string) (*GoogleAgent, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}

	return &GoogleAgent{client: client, model: model}, nil
}

// ID returns the agent identifier.
func (a *GoogleAgent) ID() string {
	return "google"
}

// Model returns the configured model name.
func (a *GoogleAgent) Model() string {
	return a.model
}

// Research sends the query to Gemini and returns the structured response.
func (a *GoogleAgent) Research(ctx context.Context, query string, domain schema.Domain, maxTokens int) (*schema.Response, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt(domain), genai.RoleUser),
		MaxOutputTokens:   int32(clampMaxTokens(maxTokens)),
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(userPrompt(query)), cfg)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("google API error: %w", err)}
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &InvalidResponseError{Reason: "google returned no candidates"}
	}

	var content string
	if resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				content += part.Text
			}
		}
	}

	parsed, err := parseResponse(a.ID(), a.model, query, domain, content)
	if err != nil {
		return nil, err
	}
	if resp.UsageMetadata != nil {
		parsed.Usage = schema.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}.Normalize()
	}
	return parsed, nil
}
