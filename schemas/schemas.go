// Package schemas embeds the JSON Schemas of the placement-matcher data artifacts.
package schemas

import (
	"embed"
	"fmt"
)

//go:embed *.schema.json
var files embed.FS

// Schema file names
const (
	Candidate      = "candidate.schema.json"
	JobDescription = "job_description.schema.json"
	Verdict        = "verdict.schema.json"
	MatchResult    = "match_result.schema.json"
)

// All lists every embedded schema
var All = []string{Candidate, JobDescription, Verdict, MatchResult}

// Read returns the content of an embedded schema
func Read(name string) ([]byte, error) {
	data, err := files.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("unknown schema %s: %w", name, err)
	}
	return data, nil
}
