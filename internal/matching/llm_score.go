package matching

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/jonathan/placement-matcher/internal/llm"
	"github.com/jonathan/placement-matcher/internal/prompts"
	"github.com/jonathan/placement-matcher/internal/retry"
	"go.uber.org/zap"
)

// FallbackScore is used when a section cannot be compared or the LLM gives no usable answer
const FallbackScore = 5.0

// scorePattern matches the first number in [0,100] in a free-text reply
var scorePattern = regexp.MustCompile(`\b(?:100(?:\.0+)?|[1-9]?\d(?:\.\d+)?)\b`)

// LLMScorer rates the similarity of two normalized section texts on a 0-100 scale
type LLMScorer interface {
	Score(ctx context.Context, cv, jd string) float64
}

// LLMSectionScorer asks a chat model for a section similarity score
type LLMSectionScorer struct {
	client llm.Client
	policy retry.Policy
	logger *zap.Logger
}

// NewLLMSectionScorer creates an LLM section scorer using the section scoring retry policy
func NewLLMSectionScorer(client llm.Client, logger *zap.Logger) *LLMSectionScorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMSectionScorer{client: client, policy: retry.SectionScoring, logger: logger}
}

// WithPolicy returns a copy of the scorer using p
func (s *LLMSectionScorer) WithPolicy(p retry.Policy) *LLMSectionScorer {
	out := *s
	out.policy = p
	return &out
}

// Score returns the model's score, or FallbackScore when every attempt fails or the reply holds no number.
func (s *LLMSectionScorer) Score(ctx context.Context, cv, jd string) float64 {
	if cv == "" || jd == "" {
		return FallbackScore
	}

	prompt, err := prompts.Render(prompts.MatchingFile, prompts.SectionScoreKey, map[string]string{
		"CV": cv,
		"JD": jd,
	})
	if err != nil {
		s.logger.Error("failed to build section prompt", zap.Error(err))
		return FallbackScore
	}

	policy := s.policy.WithOnRetry(func(attempt int, err error) {
		s.logger.Warn("LLM section score attempt failed", zap.Int("attempt", attempt), zap.Error(err))
	})

	reply, err := retry.Do(ctx, policy, func(ctx context.Context) (string, error) {
		return s.client.GenerateContent(ctx, prompt, llm.TierLite)
	})
	if err != nil {
		s.logger.Warn("LLM section score unavailable", zap.Error(err))
		return FallbackScore
	}

	s.logger.Debug("LLM section score reply",
		zap.String("cv", truncate(cv, 50)),
		zap.String("jd", truncate(jd, 50)),
		zap.String("reply", reply))

	score, err := ExtractScore(reply)
	if err != nil {
		return FallbackScore
	}
	return score
}

// ExtractScore returns the first number in [0,100] found in text
func ExtractScore(text string) (float64, error) {
	match := scorePattern.FindString(text)
	if match == "" {
		return 0, fmt.Errorf("no score in %q", truncate(text, 80))
	}
	return strconv.ParseFloat(match, 64)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
