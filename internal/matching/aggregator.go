package matching

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonathan/placement-matcher/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidWeights is returned for weight sets that cannot be normalized
var ErrInvalidWeights = types.ErrInvalidWeights

// Normalizer turns raw section content into comparable text
type Normalizer interface {
	NormalizeValue(v types.SectionValue, education bool) string
}

// MatchOptions controls one Match call
type MatchOptions struct {
	// Weights defaults to types.DefaultWeights when nil
	Weights types.WeightSet
	UseLLM  bool
	// Ambiguous defaults to AggregateAmbiguous when nil
	Ambiguous *Range
}

// Matcher aggregates per-section scores into a final match score
type Matcher struct {
	normalizer Normalizer
	scorer     *SectionScorer
	logger     *zap.Logger
}

// NewMatcher creates a Matcher
func NewMatcher(normalizer Normalizer, scorer *SectionScorer, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{normalizer: normalizer, scorer: scorer, logger: logger}
}

// Match scores every weighted section concurrently. A section that fails contributes 0 and is
// reported in MatchResult.Failures; only invalid weights make Match itself fail.
func (m *Matcher) Match(ctx context.Context, cv types.CandidateRecord, jd types.JobDescriptionSummary, opts MatchOptions) (*types.MatchResult, error) {
	weights := opts.Weights
	if weights == nil {
		weights = types.DefaultWeights()
	}
	weights, err := weights.Normalize()
	if err != nil {
		return nil, err
	}

	ambiguous := AggregateAmbiguous
	if opts.Ambiguous != nil {
		ambiguous = *opts.Ambiguous
	}

	result := &types.MatchResult{
		Sections: make(map[types.SectionKey]types.SectionScore, len(weights)),
	}

	var mu sync.Mutex
	var g errgroup.Group
	for _, key := range weights.Keys() {
		education := key == types.SectionEducation
		in := SectionInput{
			Key:       key,
			CV:        m.normalizer.NormalizeValue(cv.Section(key), education),
			JD:        m.normalizer.NormalizeValue(jd.Section(key), education),
			Weight:    weights[key],
			UseLLM:    opts.UseLLM,
			Ambiguous: &ambiguous,
		}

		g.Go(func() error {
			score, err := m.scorer.Score(ctx, in)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				m.logger.Warn("section scoring failed", zap.String("section", string(key)), zap.Error(err))
				if result.Failures == nil {
					result.Failures = make(map[types.SectionKey]string)
				}
				result.Failures[key] = err.Error()
				result.Sections[key] = types.SectionScore{Weight: types.Round2(in.Weight)}
				return nil
			}
			result.Sections[key] = score
			return nil
		})
	}
	_ = g.Wait()

	var total float64
	for _, key := range weights.Keys() {
		total += result.Sections[key].Weighted
	}
	result.FinalMatchScore = types.Round2(min(100, total))
	result.Explanation = explanation(opts.UseLLM)

	m.logger.Debug("match computed",
		zap.String("candidate", cv.DisplayName()),
		zap.Float64("final", result.FinalMatchScore),
		zap.Int("failures", len(result.Failures)))
	return result, nil
}

func explanation(useLLM bool) string {
	mode := "no LLM"
	if useLLM {
		mode = "dynamic LLM for ambiguous scores"
	}
	return fmt.Sprintf("Final score is a weighted average of semantic similarity across sections, "+
		"using sentence embeddings with rule-based boosts and %s.", mode)
}
