package shortlist

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/placement-matcher/internal/history"
	"github.com/jonathan/placement-matcher/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Engine produces ranked leaderboards
type Engine struct {
	scorer      VerdictScorer
	store       history.Store
	concurrency int
	logger      *zap.Logger
}

// NewEngine creates an Engine. concurrency bounds the number of verdicts requested at once (values < 1 mean 1).
func NewEngine(scorer VerdictScorer, store history.Store, concurrency int, logger *zap.Logger) *Engine {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{scorer: scorer, store: store, concurrency: concurrency, logger: logger}
}

// Statistics returns the score statistics and the dynamic minimum of a job description
func (e *Engine) Statistics(ctx context.Context, jdID string, minScore int) (types.ScoreStatistics, float64, int, error) {
	scores, err := e.store.HistoricalScores(ctx, jdID)
	if err != nil {
		return types.ScoreStatistics{}, 0, 0, fmt.Errorf("failed to load score history: %w", err)
	}
	stats := history.Statistics(scores)
	return stats, history.DynamicMinScore(minScore, stats), len(scores), nil
}

// Shortlist scores every candidate, records each score, and returns the filtered leaderboard.
// Recording failures abort the run.
func (e *Engine) Shortlist(ctx context.Context, jdID string, jd types.JobDescriptionSummary, candidates []types.CandidateRecord, f types.FilterSet) (*types.ShortlistResult, error) {
	stats, dynamicMin, _, err := e.Statistics(ctx, jdID, f.MinScore)
	if err != nil {
		return nil, err
	}
	e.logger.Info("score analysis",
		zap.String("jd_id", jdID),
		zap.Float64("mean", stats.Mean),
		zap.Float64("std", stats.Std),
		zap.Float64("dynamic_min_score", dynamicMin))

	result := &types.ShortlistResult{
		JDID:            jdID,
		DynamicMinScore: dynamicMin,
		Statistics:      stats,
		Leaderboard:     []types.LeaderboardEntry{},
	}
	if len(candidates) == 0 {
		return result, nil
	}

	verdicts := e.verdicts(ctx, jdID, jd, candidates)
	requiredCert := jd.RequiredCertification()

	for i, c := range candidates {
		text := verdicts[i]
		verdict, err := ParseVerdict(text)
		if err != nil {
			e.logger.Warn("failed to parse verdict",
				zap.String("candidate", c.DisplayName()),
				zap.String("output", text),
				zap.Error(err))
			verdict = types.Verdict{Score: 0, Gap: ParseErrorGap}
		}

		if err := e.store.Record(ctx, jdID, c, verdict.Score, verdict.Gap); err != nil {
			return nil, fmt.Errorf("failed to record score history: %w", err)
		}
		result.Evaluated++

		if float64(verdict.Score) < dynamicMin {
			e.logger.Debug("below dynamic minimum",
				zap.String("candidate", c.DisplayName()),
				zap.Int("score", verdict.Score))
			continue
		}
		if f.RequireCert && requiredCert != "" && !hasCertification(c, verdict, text, requiredCert) {
			e.logger.Debug("missing required certification",
				zap.String("candidate", c.DisplayName()),
				zap.String("certification", requiredCert))
			continue
		}

		result.Leaderboard = append(result.Leaderboard, types.LeaderboardEntry{
			Name:           c.DisplayName(),
			Score:          verdict.Score,
			Gap:            verdict.Gap,
			Skills:         nonNil(c.Skills),
			Experience:     c.Experience,
			Certifications: nonNil(c.Certifications),
		})
	}

	sort.SliceStable(result.Leaderboard, func(i, j int) bool {
		return result.Leaderboard[i].Score > result.Leaderboard[j].Score
	})
	if f.TopN > 0 && len(result.Leaderboard) > f.TopN {
		result.Leaderboard = result.Leaderboard[:f.TopN]
	}
	return result, nil
}

// verdicts requests all verdicts with bounded concurrency, preserving input order
func (e *Engine) verdicts(ctx context.Context, jdID string, jd types.JobDescriptionSummary, candidates []types.CandidateRecord) []string {
	out := make([]string, len(candidates))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			out[i] = e.scorer.Score(ctx, jdID, jd, c)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// hasCertification accepts a literal listing. Otherwise a certification named as a gap is absent, and
// free-text verdicts must mention it without reporting it missing.
func hasCertification(c types.CandidateRecord, verdict types.Verdict, text, cert string) bool {
	if c.HasCertification(cert) {
		return true
	}
	for _, gap := range verdict.Gaps {
		if strings.EqualFold(strings.TrimSpace(gap), cert) {
			return false
		}
	}
	lower := strings.ToLower(text)
	return strings.Contains(lower, strings.ToLower(cert)) && !strings.Contains(lower, "missing")
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
