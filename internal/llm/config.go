// Package llm provides centralized LLM configuration and client abstractions.
// Gemini is reached through its SDK; Groq and Mistral through their OpenAI-compatible chat APIs.
package llm

import "fmt"

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for short numeric judgements such as section similarity
	TierLite ModelTier = "lite"
	// TierStandard is for structured verdicts and extraction
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long-form summarization
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Supported providers
const (
	ProviderGemini  Provider = "gemini"
	ProviderGroq    Provider = "groq"
	ProviderMistral Provider = "mistral"
)

// Default OpenAI-compatible endpoints
const (
	GroqBaseURL    = "https://api.groq.com/openai/v1"
	MistralBaseURL = "https://api.mistral.ai/v1"
)

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	BaseURL     string
	Temperature float32
}

// DefaultConfig returns the default configuration (Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: 0.1,
	}
}

// DefaultGroqConfig returns the default Groq configuration
func DefaultGroqConfig() *Config {
	return &Config{
		Provider: ProviderGroq,
		Models: map[ModelTier]string{
			TierLite:     "llama-3.1-8b-instant",
			TierStandard: "llama-3.1-8b-instant",
			TierAdvanced: "llama-3.3-70b-versatile",
		},
		BaseURL:     GroqBaseURL,
		Temperature: 0.1,
	}
}

// DefaultMistralConfig returns the default Mistral configuration
func DefaultMistralConfig() *Config {
	return &Config{
		Provider: ProviderMistral,
		Models: map[ModelTier]string{
			TierLite:     "mistral-small-latest",
			TierStandard: "mistral-small-latest",
			TierAdvanced: "mistral-large-latest",
		},
		BaseURL:     MistralBaseURL,
		Temperature: 0.1,
	}
}

// ConfigFor returns the default configuration of a provider
func ConfigFor(p Provider) (*Config, error) {
	switch p {
	case ProviderGemini, "":
		return DefaultGeminiConfig(), nil
	case ProviderGroq:
		return DefaultGroqConfig(), nil
	case ProviderMistral:
		return DefaultMistralConfig(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", p)
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := *c
	newConfig.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return &newConfig
}
