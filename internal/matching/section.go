// Package matching scores a candidate against a job description section by section and
// aggregates the section scores into a single weighted match score.
package matching

import (
	"context"
	"fmt"
	"math"

	"github.com/jonathan/placement-matcher/internal/embedding"
	"github.com/jonathan/placement-matcher/internal/types"
	"go.uber.org/zap"
)

// Range is an inclusive score interval
type Range struct {
	Min float64 `json:"min" mapstructure:"min"`
	Max float64 `json:"max" mapstructure:"max"`
}

// Contains reports whether v lies in the range
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

var (
	// DefaultAmbiguous is used for direct section scoring
	DefaultAmbiguous = Range{Min: 20, Max: 70}
	// AggregateAmbiguous is used by the Matcher
	AggregateAmbiguous = Range{Min: 40, Max: 60}
)

// Embedder returns one vector per text; *embedding.CachedEmbedder satisfies it
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// SectionInput holds the normalized texts and settings for one section comparison
type SectionInput struct {
	Key       types.SectionKey
	CV        string
	JD        string
	Weight    float64
	UseLLM    bool
	Ambiguous *Range
}

// SectionScorer compares one CV section with one JD section
type SectionScorer struct {
	embedder Embedder
	llm      LLMScorer
	logger   *zap.Logger
}

// NewSectionScorer creates a section scorer. llmScorer may be nil, in which case UseLLM is ignored.
func NewSectionScorer(embedder Embedder, llmScorer LLMScorer, logger *zap.Logger) *SectionScorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionScorer{embedder: embedder, llm: llmScorer, logger: logger}
}

// Score computes the boosted section score and its weighted contribution
func (s *SectionScorer) Score(ctx context.Context, in SectionInput) (types.SectionScore, error) {
	ambiguous := DefaultAmbiguous
	if in.Ambiguous != nil {
		ambiguous = *in.Ambiguous
	}

	score := FallbackScore
	consulted := false
	if in.CV != "" && in.JD != "" {
		vectors, err := s.embedder.EmbedBatch(ctx, []string{in.CV, in.JD})
		if err != nil {
			return types.SectionScore{}, fmt.Errorf("failed to embed %s section: %w", in.Key, err)
		}
		if len(vectors) != 2 {
			return types.SectionScore{}, fmt.Errorf("failed to embed %s section: got %d vectors", in.Key, len(vectors))
		}
		score = SimilarityScore(vectors[0], vectors[1])
	}

	if in.UseLLM && s.llm != nil && ambiguous.Contains(score) {
		llmScore := s.llm.Score(ctx, in.CV, in.JD)
		s.logger.Debug("ambiguous section refined by LLM",
			zap.String("section", string(in.Key)),
			zap.Float64("embedding", score),
			zap.Float64("llm", llmScore))
		score = math.Max(score, llmScore)
		consulted = true
	}

	final := types.Round2(math.Min(100, score+RuleBoost(in.CV, in.JD)))

	return types.SectionScore{
		Score:        final,
		Weighted:     types.Round2(final * in.Weight / 100),
		Weight:       types.Round2(in.Weight),
		LLMConsulted: consulted,
	}, nil
}

// SimilarityScore maps cosine similarity to [0,100] with two decimals
func SimilarityScore(a, b []float32) float64 {
	sim := embedding.Cosine(a, b) * 100
	return types.Round2(math.Max(0, math.Min(100, sim)))
}
