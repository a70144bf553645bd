package history

import (
	"math"
	"sort"

	"github.com/jonathan/placement-matcher/internal/types"
	"gonum.org/v1/gonum/stat"
)

// Defaults used when a job description has no history
const (
	DefaultMean   = 50.0
	DefaultStd    = 10.0
	MaxSuggestion = 55.0
)

// Statistics summarizes historical scores. The suggested minimum is the rounded mean,
// never above MaxSuggestion.
func Statistics(scores []int) types.ScoreStatistics {
	if len(scores) == 0 {
		return types.ScoreStatistics{
			Mean:              DefaultMean,
			Median:            DefaultMean,
			Std:               DefaultStd,
			SuggestedMinScore: DefaultMean,
		}
	}

	values := make([]float64, len(scores))
	for i, s := range scores {
		values[i] = float64(s)
	}
	sort.Float64s(values)

	mean := stat.Mean(values, nil)
	std := DefaultStd
	if len(values) > 1 {
		std = stat.StdDev(values, nil)
	}

	return types.ScoreStatistics{
		Mean:              types.Round2(mean),
		Median:            types.Round2(median(values)),
		Std:               types.Round2(std),
		SuggestedMinScore: math.Min(MaxSuggestion, types.Round2(mean)),
	}
}

// median expects sorted input
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// DynamicMinScore is the effective leaderboard floor for a caller-supplied minimum
func DynamicMinScore(minScore int, stats types.ScoreStatistics) float64 {
	return math.Max(float64(minScore), stats.SuggestedMinScore)
}
