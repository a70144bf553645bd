package summarize

import (
	"context"
	"errors"
	"sync"

	"github.com/jonathan/placement-matcher/internal/llm"
)

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	mu               sync.Mutex
	prompts          []string
	tiers            []llm.ModelTier
	GenerateJSONFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
}

func (m *MockLLMClient) GenerateContent(context.Context, string, llm.ModelTier) (string, error) {
	return "", errors.New("not used")
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.tiers = append(m.tiers, tier)
	m.mu.Unlock()
	return m.GenerateJSONFunc(ctx, prompt, tier)
}

func (m *MockLLMClient) GetModel(llm.ModelTier) string { return "mock-model" }

func (m *MockLLMClient) Close() error { return nil }
