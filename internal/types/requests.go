package types

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// MatchRequest asks for the match score of one candidate against one job description
type MatchRequest struct {
	ParsedCV     *CandidateRecord       `json:"parsed_cv" validate:"required"`
	SummarizedJD *JobDescriptionSummary `json:"summarized_jd" validate:"required"`
	Weights      WeightSet              `json:"weights,omitempty"`
	UseLLM       *bool                  `json:"use_llm,omitempty"`
}

// ShortlistRequest asks for a ranked leaderboard of candidates. It is also the queue message body.
type ShortlistRequest struct {
	JDID       string                 `json:"jd_id,omitempty" validate:"omitempty,max=128"`
	JDSummary  *JobDescriptionSummary `json:"jd_summary" validate:"required"`
	Candidates []CandidateRecord      `json:"candidates"`
	Filters    *FilterSet             `json:"filters,omitempty"`
}

// SummarizeRequest carries a raw job description
type SummarizeRequest struct {
	JobDescription string `json:"job_description" validate:"required"`
}

// BatchRequest summarizes a job description and shortlists candidates against it in one call
type BatchRequest struct {
	JobDescription string            `json:"job_description" validate:"required"`
	Candidates     []CandidateRecord `json:"candidates"`
	Filters        *FilterSet        `json:"filters,omitempty"`
}

// Validate validates the MatchRequest using the validator.
func (r *MatchRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the ShortlistRequest using the validator.
func (r *ShortlistRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the SummarizeRequest using the validator.
func (r *SummarizeRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the BatchRequest using the validator.
func (r *BatchRequest) Validate() error {
	return validate.Struct(r)
}

// FiltersOr returns the request filters, or def when none were sent
func FiltersOr(f *FilterSet, def FilterSet) FilterSet {
	if f == nil {
		return def
	}
	return *f
}
