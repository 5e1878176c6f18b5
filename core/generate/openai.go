package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/siherrmann/describer/model"
)

// OpenAIConfig holds the configuration for the OpenAI gateway. All values
// are passed in explicitly, the client never reads process-wide state.
type OpenAIConfig struct {
	APIKey      string        `json:"api_key"`
	BaseURL     string        `json:"base_url,omitempty"`
	Model       string        `json:"model,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty"`
}

// OpenAIClient implements Generator against the OpenAI chat completions API
type OpenAIClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
}

// openAIRequestBody represents the request body for the OpenAI API
type openAIRequestBody struct {
	Model       string              `json:"model"`
	Messages    []map[string]string `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
}

// openAIResponseBody represents the response from the OpenAI API
type openAIResponseBody struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// NewOpenAIClient creates a new OpenAI gateway client
func NewOpenAIClient(config OpenAIConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	generationModel := config.Model
	if generationModel == "" {
		generationModel = "gpt-4o-mini"
	}

	temperature := config.Temperature
	if temperature == 0 {
		temperature = 0.7
	}

	maxTokens := config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 150
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &OpenAIClient{
		apiKey:      config.APIKey,
		baseURL:     baseURL,
		model:       generationModel,
		temperature: temperature,
		maxTokens:   maxTokens,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Generate builds the prompt for the entity and requests a completion.
// Failures are classified by HTTP status so the runner can apply its retry
// policy.
func (c *OpenAIClient) Generate(ctx context.Context, entity *model.Entity, promptCtx PromptContext) (string, error) {
	prompt := BuildPrompt(entity, promptCtx)

	reqBody := openAIRequestBody{
		Model: c.model,
		Messages: []map[string]string{
			{"role": "user", "content": prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", NewGenerationError(FailureRejected, fmt.Errorf("failed to marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", NewGenerationError(FailureRejected, fmt.Errorf("failed to create request: %w", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", NewGenerationError(FailureTransient, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewGenerationError(FailureTransient, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := fmt.Errorf("OpenAI API error (status %d): %s", resp.StatusCode, string(body))
		return "", NewGenerationError(classifyStatus(resp.StatusCode), apiErr)
	}

	var apiResp openAIResponseBody
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", NewGenerationError(FailureTransient, fmt.Errorf("failed to parse response: %w", err))
	}

	if len(apiResp.Choices) == 0 {
		return "", NewGenerationError(FailureRejected, fmt.Errorf("no choices in response"))
	}

	content := strings.TrimSpace(apiResp.Choices[0].Message.Content)
	if content == "" {
		return "", NewGenerationError(FailureRejected, fmt.Errorf("empty completion for entity %s", entity.Identity()))
	}

	return content, nil
}

// classifyStatus maps an HTTP status code onto the failure taxonomy
func classifyStatus(status int) FailureKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return FailureAuth
	case status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500:
		return FailureTransient
	default:
		return FailureRejected
	}
}
