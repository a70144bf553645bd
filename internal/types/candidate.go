//nolint:revive // types is a standard Go package name pattern
package types

// UnknownCandidate is used wherever a candidate record has no name
const UnknownCandidate = "Unknown"

// CandidateRecord is a parsed resume as produced by the resume parser
type CandidateRecord struct {
	Name           string   `json:"name"`
	Skills         []string `json:"skills"`
	Experience     string   `json:"experience"`
	Education      string   `json:"education,omitempty"`
	Certifications []string `json:"certifications"`
	Projects       string   `json:"projects,omitempty"`
}

// DisplayName returns the candidate name or UnknownCandidate
func (c CandidateRecord) DisplayName() string {
	if c.Name == "" {
		return UnknownCandidate
	}
	return c.Name
}

// Section returns the candidate's content for a section key
func (c CandidateRecord) Section(key SectionKey) SectionValue {
	switch key {
	case SectionSkills:
		return List(c.Skills...)
	case SectionExperience:
		return Text(c.Experience)
	case SectionEducation:
		return Text(c.Education)
	case SectionCertifications:
		return List(c.Certifications...)
	case SectionProjects:
		return Text(c.Projects)
	default:
		return SectionValue{}
	}
}

// HasCertification reports whether cert appears verbatim in the candidate's certifications
func (c CandidateRecord) HasCertification(cert string) bool {
	for _, have := range c.Certifications {
		if have == cert {
			return true
		}
	}
	return false
}

// JobDescriptionSummary is a job description reduced to per-section requirements
type JobDescriptionSummary struct {
	Skills         SectionValue `json:"skills"`
	Experience     SectionValue `json:"experience"`
	Education      SectionValue `json:"education"`
	Certifications SectionValue `json:"certifications"`
	Projects       SectionValue `json:"projects"`
}

// Section returns the job description's content for a section key
func (j JobDescriptionSummary) Section(key SectionKey) SectionValue {
	switch key {
	case SectionSkills:
		return j.Skills
	case SectionExperience:
		return j.Experience
	case SectionEducation:
		return j.Education
	case SectionCertifications:
		return j.Certifications
	case SectionProjects:
		return j.Projects
	default:
		return SectionValue{}
	}
}

// RequiredCertification returns the first certification named by the job description, if any
func (j JobDescriptionSummary) RequiredCertification() string {
	return j.Certifications.First()
}

// IsEmpty reports whether every section is blank
func (j JobDescriptionSummary) IsEmpty() bool {
	for _, key := range AllSections {
		if !j.Section(key).IsEmpty() {
			return false
		}
	}
	return true
}
