package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildExtractionPrompt(t *testing.T) {
	schema := JobDescriptionSummarySchema()
	prompt := BuildExtractionPrompt(schema, "  We need a Go developer with AWS certification.\n")

	assert.True(t, strings.HasPrefix(prompt, "You are an expert recruiter"))
	for _, field := range []string{"skills", "experience", "education", "certifications", "projects"} {
		assert.Contains(t, prompt, `- "`+field+`": `)
	}
	assert.Contains(t, prompt, `Shape: {"skills": "", "experience": "", "education": "", "certifications": "", "projects": ""}`)
	assert.True(t, strings.HasSuffix(prompt, "Job description:\n<<<\nWe need a Go developer with AWS certification.\n>>>\n"))
}

func TestBuildExtractionPrompt_Defaults(t *testing.T) {
	schema := ExtractionSchema{
		Task:   "Extract.",
		Fields: []SchemaField{{Name: "a"}, {Name: "b", Hint: "the b"}},
	}
	prompt := BuildExtractionPrompt(schema, "x")

	assert.Contains(t, prompt, "- \"a\"\n- \"b\": the b\n")
	assert.Contains(t, prompt, "Input:\n<<<\nx\n>>>\n")
}
