package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/placement-matcher/internal/embedding"
	"github.com/jonathan/placement-matcher/internal/textnorm"
	"github.com/jonathan/placement-matcher/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHashingMatcher() *Matcher {
	embedder := embedding.NewCachedEmbedder(embedding.NewHashingProvider(0), nil, nil)
	return NewMatcher(textnorm.New(0), NewSectionScorer(embedder, nil, nil), nil)
}

func sampleCandidate() types.CandidateRecord {
	return types.CandidateRecord{
		Name:       "Asha",
		Skills:     []string{"Python", "Java", "SQL", "REST APIs"},
		Experience: "Developed scalable backend systems using Python and Java, including REST APIs and database integration with SQL.",
		Education:  "Bachelor of Science in Computer Science, graduated 2020",
	}
}

func sampleJD() types.JobDescriptionSummary {
	return types.JobDescriptionSummary{
		Skills:     types.List("Python", "JavaScript", "REST APIs"),
		Experience: types.Text("Build scalable backend systems with Python or JavaScript, including REST APIs and cloud deployment."),
		Education:  types.Text("Bachelor's degree in Computer Science or related field"),
	}
}

func TestMatcher_DefaultWeights(t *testing.T) {
	result, err := newHashingMatcher().Match(context.Background(), sampleCandidate(), sampleJD(), MatchOptions{})
	require.NoError(t, err)

	require.Len(t, result.Sections, len(types.AllSections))
	assert.Empty(t, result.Failures)

	var sum float64
	for _, key := range types.AllSections {
		sum += result.Sections[key].Weighted
	}
	assert.InDelta(t, sum, result.FinalMatchScore, 0.011)
	assert.GreaterOrEqual(t, result.FinalMatchScore, 0.0)
	assert.LessOrEqual(t, result.FinalMatchScore, 100.0)

	// Neither side lists certifications or projects
	assert.Equal(t, 5.0, result.Sections[types.SectionCertifications].Score)
	assert.Equal(t, 0.5, result.Sections[types.SectionCertifications].Weighted)
	assert.Equal(t, 5.0, result.Sections[types.SectionProjects].Score)
	assert.Equal(t, 0.25, result.Sections[types.SectionProjects].Weighted)

	assert.Contains(t, result.Explanation, "no LLM")
}

func TestMatcher_CustomWeightsNormalized(t *testing.T) {
	weights := types.WeightSet{types.SectionSkills: 2, types.SectionExperience: 1, types.SectionEducation: 1}
	result, err := newHashingMatcher().Match(context.Background(), sampleCandidate(), sampleJD(), MatchOptions{Weights: weights})
	require.NoError(t, err)

	require.Len(t, result.Sections, 3)
	assert.Equal(t, 50.0, result.Sections[types.SectionSkills].Weight)
	assert.Equal(t, 25.0, result.Sections[types.SectionExperience].Weight)
}

func TestMatcher_Deterministic(t *testing.T) {
	m := newHashingMatcher()
	first, err := m.Match(context.Background(), sampleCandidate(), sampleJD(), MatchOptions{})
	require.NoError(t, err)
	second, err := m.Match(context.Background(), sampleCandidate(), sampleJD(), MatchOptions{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestMatcher_InvalidWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights types.WeightSet
	}{
		{name: "all zero", weights: types.WeightSet{types.SectionSkills: 0}},
		{name: "negative", weights: types.WeightSet{types.SectionSkills: -1, types.SectionProjects: 5}},
		{name: "unknown section", weights: types.WeightSet{"hobbies": 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newHashingMatcher().Match(context.Background(), sampleCandidate(), sampleJD(), MatchOptions{Weights: tt.weights})
			assert.ErrorIs(t, err, ErrInvalidWeights)
		})
	}
}

func TestMatcher_SectionFailureContributesZero(t *testing.T) {
	emb := &fakeEmbedder{err: errors.New("quota exceeded")}
	m := NewMatcher(textnorm.New(0), NewSectionScorer(emb, nil, nil), nil)

	cv := types.CandidateRecord{Name: "Ravi", Skills: []string{"Kubernetes"}}
	jd := types.JobDescriptionSummary{Skills: types.Text("Kubernetes"), Projects: types.Text("payments")}

	result, err := m.Match(context.Background(), cv, jd, MatchOptions{})
	require.NoError(t, err)

	require.Contains(t, result.Failures, types.SectionSkills)
	assert.Contains(t, result.Failures[types.SectionSkills], "quota exceeded")
	assert.Equal(t, 0.0, result.Sections[types.SectionSkills].Weighted)

	// The other four sections have an empty side and take the floor path
	assert.Len(t, result.Failures, 1)
	assert.Equal(t, 3.0, result.FinalMatchScore)
}

func TestMatcher_UseLLM(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"alpha": vecA, "beta": vecHalf}}
	judge := &fixedLLM{score: 90}
	m := NewMatcher(textnorm.New(0), NewSectionScorer(emb, judge, nil), nil)

	cv := types.CandidateRecord{Skills: []string{"alpha"}}
	jd := types.JobDescriptionSummary{Skills: types.Text("beta")}

	result, err := m.Match(context.Background(), cv, jd, MatchOptions{
		Weights: types.WeightSet{types.SectionSkills: 1},
		UseLLM:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, judge.calls)
	assert.Equal(t, 90.0, result.FinalMatchScore)
	assert.Contains(t, result.Explanation, "dynamic LLM for ambiguous scores")
}
