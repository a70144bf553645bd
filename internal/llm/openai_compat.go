package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// OpenAICompatClient implements Client for providers exposing an OpenAI-style
// /chat/completions endpoint (Groq, Mistral)
type OpenAICompatClient struct {
	http   *resty.Client
	config *Config
	logger *zap.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float32           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

// NewOpenAICompatClient creates a chat-completions client
func NewOpenAICompatClient(config *Config, apiKey string, logger *zap.Logger) (*OpenAICompatClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		switch config.Provider {
		case ProviderMistral:
			baseURL = MistralBaseURL
		default:
			baseURL = GroqBaseURL
		}
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(60 * time.Second)

	return &OpenAICompatClient{http: httpClient, config: config, logger: logger}, nil
}

// GenerateContent generates text content using the specified model tier
func (c *OpenAICompatClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.chat(ctx, prompt, tier, false)
}

// GenerateJSON generates JSON content using the specified model tier
func (c *OpenAICompatClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := c.chat(ctx, prompt, tier, true)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// GetModel returns the model name for a tier
func (c *OpenAICompatClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the HTTP client holds no dedicated resources
func (c *OpenAICompatClient) Close() error {
	return nil
}

func (c *OpenAICompatClient) chat(ctx context.Context, prompt string, tier ModelTier, jsonMode bool) (string, error) {
	model := c.config.GetModel(tier)
	if model == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	req := chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.config.Temperature,
	}
	if jsonMode {
		req.ResponseFormat = map[string]string{"type": "json_object"}
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("failed to call %s: %w", c.config.Provider, err)
	}

	if resp.IsError() {
		c.logger.Warn("LLM request failed",
			zap.String("provider", string(c.config.Provider)),
			zap.Int("status", resp.StatusCode()))
		return "", &APIError{Provider: c.config.Provider, StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	content := gjson.GetBytes(resp.Body(), "choices.0.message.content")
	if !content.Exists() || content.String() == "" {
		return "", fmt.Errorf("no content in %s response", c.config.Provider)
	}

	c.logger.Debug("LLM response",
		zap.String("provider", string(c.config.Provider)),
		zap.String("model", model),
		zap.Duration("took", time.Since(start)))
	return content.String(), nil
}
