// Package types provides type definitions for structured data used throughout the placement-matcher system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// SectionKey identifies a structured attribute compared between a candidate and a job description
type SectionKey string

// Section keys understood by the matcher
const (
	SectionSkills         SectionKey = "skills"
	SectionExperience     SectionKey = "experience"
	SectionEducation      SectionKey = "education"
	SectionCertifications SectionKey = "certifications"
	SectionProjects       SectionKey = "projects"
)

// AllSections lists every known section key in canonical order
var AllSections = []SectionKey{
	SectionSkills,
	SectionExperience,
	SectionEducation,
	SectionCertifications,
	SectionProjects,
}

// Valid reports whether k is a known section key
func (k SectionKey) Valid() bool {
	for _, s := range AllSections {
		if s == k {
			return true
		}
	}
	return false
}

// SectionValue holds section content that arrives either as free text or as a list of strings.
// Summarizers emit comma-separated text while resume parsers emit lists; both shapes are kept
// so that list semantics (such as "first certification") can be recovered from either.
type SectionValue struct {
	items []string
	list  bool
}

// Text creates a free-text section value
func Text(s string) SectionValue {
	if strings.TrimSpace(s) == "" {
		return SectionValue{}
	}
	return SectionValue{items: []string{s}}
}

// List creates a list section value
func List(items ...string) SectionValue {
	return SectionValue{items: append([]string(nil), items...), list: true}
}

// IsList reports whether the value arrived as a list
func (v SectionValue) IsList() bool {
	return v.list
}

// IsEmpty reports whether the value carries no non-blank content
func (v SectionValue) IsEmpty() bool {
	return v.String() == ""
}

// String joins the value's non-blank items with ", "
func (v SectionValue) String() string {
	parts := make([]string, 0, len(v.items))
	for _, item := range v.items {
		if s := strings.TrimSpace(item); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// Items returns the list entries. Free text is split on commas.
func (v SectionValue) Items() []string {
	if v.list {
		out := make([]string, 0, len(v.items))
		for _, item := range v.items {
			if s := strings.TrimSpace(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	var out []string
	for _, item := range v.items {
		for _, part := range strings.Split(item, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// First returns the first entry of Items, or "" when there is none
func (v SectionValue) First() string {
	items := v.Items()
	if len(items) == 0 {
		return ""
	}
	return items[0]
}

// UnmarshalJSON accepts a string, an array of scalars, or null
func (v *SectionValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = SectionValue{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	case '[':
		var raw []any
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, r := range raw {
			if r == nil {
				continue
			}
			items = append(items, fmt.Sprint(r))
		}
		*v = List(items...)
		return nil
	default:
		return fmt.Errorf("section value must be a string or a list of strings, got %s", string(data))
	}
}

// MarshalJSON writes lists as arrays and text as a string
func (v SectionValue) MarshalJSON() ([]byte, error) {
	if v.list {
		return json.Marshal(v.Items())
	}
	return json.Marshal(v.String())
}
