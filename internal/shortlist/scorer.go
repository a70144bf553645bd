// Package shortlist ranks candidates for a job description using an LLM verdict per candidate,
// the score history of the job description and the caller's filters.
package shortlist

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jonathan/placement-matcher/internal/cache"
	"github.com/jonathan/placement-matcher/internal/llm"
	"github.com/jonathan/placement-matcher/internal/prompts"
	"github.com/jonathan/placement-matcher/internal/types"
	"go.uber.org/zap"
)

// ErrNoClient is reported in the verdict when no LLM is configured
var ErrNoClient = errors.New("LLM client not configured")

const notAvailable = "N/A"

// VerdictScorer produces the verdict text for one candidate
type VerdictScorer interface {
	Score(ctx context.Context, jdID string, jd types.JobDescriptionSummary, c types.CandidateRecord) string
}

// CandidateScorer asks the LLM for a holistic verdict and caches it per job description and candidate name
type CandidateScorer struct {
	client llm.Client
	store  cache.Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewCandidateScorer creates a CandidateScorer; a nil store disables caching
func NewCandidateScorer(client llm.Client, store cache.Store, logger *zap.Logger) *CandidateScorer {
	if store == nil {
		store = cache.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CandidateScorer{client: client, store: store, ttl: cache.DefaultTTL, logger: logger}
}

// CacheKey returns the verdict cache key of a candidate
func CacheKey(jdID string, c types.CandidateRecord) string {
	return cache.Key(cache.PrefixVerdict, jdID+":"+c.DisplayName())
}

// Score returns the verdict text. Failures produce a zero-score verdict that is not cached.
func (s *CandidateScorer) Score(ctx context.Context, jdID string, jd types.JobDescriptionSummary, c types.CandidateRecord) string {
	key := CacheKey(jdID, c)
	if data, ok := s.store.Get(ctx, key); ok {
		s.logger.Debug("cached verdict", zap.String("candidate", c.DisplayName()))
		return string(data)
	}

	if s.client == nil {
		return ErrorVerdict(ErrNoClient)
	}

	prompt, err := buildVerdictPrompt(jd, c)
	if err != nil {
		s.logger.Error("failed to build verdict prompt", zap.Error(err))
		return ErrorVerdict(err)
	}

	reply, err := s.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		s.logger.Error("LLM scoring failed", zap.String("candidate", c.DisplayName()), zap.Error(err))
		return ErrorVerdict(err)
	}

	text := canonicalVerdict(reply)
	s.store.Set(ctx, key, []byte(text), s.ttl)
	return text
}

// canonicalVerdict renders a schema-valid JSON reply as text; anything else is kept verbatim
func canonicalVerdict(reply string) string {
	if v, ok := parseStructured(reply); ok {
		return RenderVerdict(v.Score, v.Gaps)
	}
	return strings.TrimSpace(reply)
}

func buildVerdictPrompt(jd types.JobDescriptionSummary, c types.CandidateRecord) (string, error) {
	return prompts.Render(prompts.ShortlistingFile, prompts.CandidateVerdictKey, map[string]string{
		"JDSkills":         orNA(jd.Skills.String()),
		"JDExperience":     orNA(jd.Experience.String()),
		"JDCertifications": orNA(jd.Certifications.String()),
		"Name":             c.DisplayName(),
		"Skills":           orNA(strings.Join(c.Skills, ", ")),
		"Experience":       orNA(c.Experience),
		"Certifications":   orNA(strings.Join(c.Certifications, ", ")),
	})
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}
