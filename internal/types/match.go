//nolint:revive // types is a standard Go package name pattern
package types

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidWeights is returned when a weight set cannot be normalized
var ErrInvalidWeights = errors.New("invalid weights")

// WeightSet maps section keys to non-negative weights
type WeightSet map[SectionKey]float64

// DefaultWeights returns the standard section weighting
func DefaultWeights() WeightSet {
	return WeightSet{
		SectionSkills:         40,
		SectionExperience:     30,
		SectionEducation:      15,
		SectionCertifications: 10,
		SectionProjects:       5,
	}
}

// Normalize returns a copy of the weights scaled so that they sum to 100
func (w WeightSet) Normalize() (WeightSet, error) {
	if len(w) == 0 {
		return nil, fmt.Errorf("%w: no sections weighted", ErrInvalidWeights)
	}

	var total float64
	for key, weight := range w {
		if !key.Valid() {
			return nil, fmt.Errorf("%w: unknown section %q", ErrInvalidWeights, key)
		}
		if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
			return nil, fmt.Errorf("%w: section %q has weight %v", ErrInvalidWeights, key, weight)
		}
		total += weight
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: weights sum to zero", ErrInvalidWeights)
	}

	out := make(WeightSet, len(w))
	for key, weight := range w {
		out[key] = weight / total * 100
	}
	return out, nil
}

// Keys returns the weighted section keys in canonical order
func (w WeightSet) Keys() []SectionKey {
	keys := make([]SectionKey, 0, len(w))
	for _, key := range AllSections {
		if _, ok := w[key]; ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// SectionScore is the outcome of comparing one section
type SectionScore struct {
	Score        float64 `json:"score"`
	Weighted     float64 `json:"weighted"`
	Weight       float64 `json:"weight"`
	LLMConsulted bool    `json:"llm_consulted,omitempty"`
}

// MatchResult aggregates the per-section scores of one candidate against one job description
type MatchResult struct {
	Sections        map[SectionKey]SectionScore `json:"sections"`
	FinalMatchScore float64                     `json:"final_match_score"`
	Explanation     string                      `json:"explanation"`
	Failures        map[SectionKey]string       `json:"failures,omitempty"`
}

// Round2 rounds to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
