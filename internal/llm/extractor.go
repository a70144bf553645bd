package llm

import (
	"strconv"
	"strings"
)

// ExtractionSchema describes the flat JSON object an extraction prompt asks the model for
type ExtractionSchema struct {
	// Task opens the prompt
	Task string
	// Subject names the input text, e.g. "Job description"
	Subject string
	Fields  []SchemaField
}

// SchemaField is one string-valued key of the extraction output
type SchemaField struct {
	Name string
	Hint string
}

// BuildExtractionPrompt renders the task, the expected keys and an empty example object, followed
// by the input text between fences.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	sb.WriteString(strings.TrimSpace(schema.Task))
	sb.WriteString("\n\nReply with one JSON object holding exactly these string keys:\n")
	for _, f := range schema.Fields {
		sb.WriteString("- ")
		sb.WriteString(strconv.Quote(f.Name))
		if f.Hint != "" {
			sb.WriteString(": ")
			sb.WriteString(f.Hint)
		}
		sb.WriteString("\n")
	}

	empty := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		empty[i] = strconv.Quote(f.Name) + `: ""`
	}
	sb.WriteString("\nShape: {")
	sb.WriteString(strings.Join(empty, ", "))
	sb.WriteString("}\n\n")

	sb.WriteString("Use an empty string for anything the text does not mention and never invent requirements. ")
	sb.WriteString("Do not wrap the JSON in markdown.\n\n")

	subject := schema.Subject
	if subject == "" {
		subject = "Input"
	}
	sb.WriteString(subject)
	sb.WriteString(":\n<<<\n")
	sb.WriteString(strings.TrimSpace(inputText))
	sb.WriteString("\n>>>\n")

	return sb.String()
}

// JobDescriptionSummarySchema asks for the five matchable sections of a job description.
// List-like content comes back comma separated.
func JobDescriptionSummarySchema() ExtractionSchema {
	return ExtractionSchema{
		Task: `You are an expert recruiter summarizing a job description for automated candidate matching.
Keep skill and certification names exactly as written so they can be compared against resumes.`,
		Subject: "Job description",
		Fields: []SchemaField{
			{Name: "skills", Hint: "required technical and soft skills, comma separated"},
			{Name: "experience", Hint: "years and kind of experience expected"},
			{Name: "education", Hint: "degree or field of study"},
			{Name: "certifications", Hint: "required or preferred certifications, comma separated, most important first"},
			{Name: "projects", Hint: "kinds of projects or domains worked on"},
		},
	}
}
