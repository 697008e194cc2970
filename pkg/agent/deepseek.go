package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/zen-systems/quorum/pkg/schema"
)

const deepseekBaseURL = "https://api.deepseek.com/v1"

// DeepSeekAgent implements the Agent interface for DeepSeek models.
// DeepSeek uses an OpenAI-compatible API format.
type DeepSeekAgent struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

type deepseekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type deepseekRequest struct {
	Model     string            `json:"model"`
	Messages  []deepseekMessage `json:"messages"`
	MaxTokens int               `json:"max_tokens,omitempty"`
}

type deepseekResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// NewDeepSeekAgent creates a new DeepSeek research agent.
func NewDeepSeekAgent(apiKey, model string) (*DeepSeekAgent, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepseek API key is required")
	}
	if model == "" {
		model = "deepseek-chat"
	}

	return &DeepSeekAgent{
		apiKey:     apiKey,
		baseURL:    deepseekBaseURL,
		model:      model,
		httpClient: &http.Client{},
	}, nil
}

// ID returns the agent identifier.
func (a *DeepSeekAgent) ID() string {
	return "deepseek"
}

// Model returns the configured model name.
func (a *DeepSeekAgent) Model() string {
	return a.model
}

// Research sends the query to DeepSeek and returns the structured response.
func (a *DeepSeekAgent) Research(ctx context.Context, query string, domain schema.Domain, maxTokens int) (*schema.Response, error) {
	reqBody := deepseekRequest{
		Model: a.model,
		Messages: []deepseekMessage{
			{Role: "system", Content: systemPrompt(domain)},
			{Role: "user", Content: userPrompt(query)},
		},
		MaxTokens: clampMaxTokens(maxTokens),
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("deepseek API request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	var dsResp deepseekResponse
	if err := json.Unmarshal(body, &dsResp); err != nil {
		return nil, &InvalidResponseError{Reason: "malformed provider payload", Err: err}
	}

	if dsResp.Error != nil {
		return nil, &TransportError{
			Status: resp.StatusCode,
			Err: fmt.Errorf("deepseek API error: %s (type: %s, code: %s)",
				dsResp.Error.Message, dsResp.Error.Type, dsResp.Error.Code),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{
			Status:    resp.StatusCode,
			Temporary: resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
			Err:       fmt.Errorf("deepseek API returned status %d", resp.StatusCode),
		}
	}
	if len(dsResp.Choices) == 0 {
		return nil, &InvalidResponseError{Reason: "deepseek returned no choices"}
	}

	parsed, err := parseResponse(a.ID(), a.model, query, domain, dsResp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	parsed.Usage = schema.Usage{
		PromptTokens:     dsResp.Usage.PromptTokens,
		CompletionTokens: dsResp.Usage.CompletionTokens,
		TotalTokens:      dsResp.Usage.TotalTokens,
	}.Normalize()
	return parsed, nil
}
