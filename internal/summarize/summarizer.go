// Package summarize reduces a free-text job description to the per-section requirements used for matching.
package summarize

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jonathan/placement-matcher/internal/llm"
	"github.com/jonathan/placement-matcher/internal/retry"
	"github.com/jonathan/placement-matcher/internal/schemas"
	"github.com/jonathan/placement-matcher/internal/types"
	schemafiles "github.com/jonathan/placement-matcher/schemas"
	"go.uber.org/zap"
)

// Summarizer extracts a JobDescriptionSummary with an LLM
type Summarizer struct {
	client llm.Client
	policy retry.Policy
	logger *zap.Logger
}

// New creates a Summarizer using the summarization retry policy
func New(client llm.Client, logger *zap.Logger) *Summarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{client: client, policy: retry.Summarization, logger: logger}
}

// WithPolicy returns a copy of the summarizer using p
func (s *Summarizer) WithPolicy(p retry.Policy) *Summarizer {
	out := *s
	out.policy = p
	return &out
}

// Summarize extracts the section requirements of a job description
func (s *Summarizer) Summarize(ctx context.Context, text string) (types.JobDescriptionSummary, error) {
	if strings.TrimSpace(text) == "" {
		return types.JobDescriptionSummary{}, &ValidationError{Field: "job_description", Message: "job description text is empty"}
	}
	if s.client == nil {
		return types.JobDescriptionSummary{}, &APICallError{Message: "LLM client not configured"}
	}

	prompt := llm.BuildExtractionPrompt(llm.JobDescriptionSummarySchema(), text)
	policy := s.policy.WithOnRetry(func(attempt int, err error) {
		s.logger.Warn("summarization attempt failed", zap.Int("attempt", attempt), zap.Error(err))
	})

	summary, err := retry.Do(ctx, policy, func(ctx context.Context) (types.JobDescriptionSummary, error) {
		reply, err := s.client.GenerateJSON(ctx, prompt, llm.TierAdvanced)
		if err != nil {
			return types.JobDescriptionSummary{}, &APICallError{Message: "failed to summarize job description", Cause: err}
		}
		return parseSummary(reply)
	})
	if err != nil {
		return types.JobDescriptionSummary{}, err
	}

	postProcess(&summary)
	s.logger.Info("summarized job description",
		zap.String("skills", summary.Skills.String()),
		zap.String("certifications", summary.Certifications.String()))
	return summary, nil
}

// parseSummary validates and decodes a model reply
func parseSummary(reply string) (types.JobDescriptionSummary, error) {
	cleaned := llm.CleanJSONBlock(reply)
	if err := schemas.Validate(schemafiles.JobDescription, []byte(cleaned)); err != nil {
		return types.JobDescriptionSummary{}, &ParseError{Message: "reply does not match the summary schema", Cause: err}
	}

	var summary types.JobDescriptionSummary
	if err := json.Unmarshal([]byte(cleaned), &summary); err != nil {
		return types.JobDescriptionSummary{}, &ParseError{Message: "failed to parse JSON response", Cause: err}
	}
	if summary.IsEmpty() {
		return types.JobDescriptionSummary{}, &ParseError{Message: "summary has no content"}
	}
	return summary, nil
}

func postProcess(summary *types.JobDescriptionSummary) {
	if summary.Skills.IsList() {
		items := summary.Skills.Items()
		for i, item := range items {
			items[i] = NormalizeSkillName(item)
		}
		summary.Skills = types.List(items...)
		return
	}
	summary.Skills = types.Text(NormalizeSkillList(summary.Skills.String()))
}
