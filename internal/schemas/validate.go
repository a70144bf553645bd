// Package schemas checks JSON documents against the embedded artifact schemas before they are decoded.
package schemas

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	schemafiles "github.com/jonathan/placement-matcher/schemas"
	"github.com/xeipuuv/gojsonschema"
)

// Violation is one schema rule a document breaks
type Violation struct {
	Field   string
	Message string
}

// ValidationError lists every violation of a document, ordered by field
type ValidationError struct {
	Schema     string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Message
	}
	return fmt.Sprintf("document does not match %s (%s)", e.Schema, strings.Join(parts, "; "))
}

// LoadError means the schema itself could not be used
type LoadError struct {
	Schema string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("schema %s unavailable: %v", e.Schema, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

var (
	mu       sync.RWMutex
	compiled = map[string]*gojsonschema.Schema{}
)

// Validate checks document against the embedded schema called name.
// Malformed JSON is reported as a plain error, rule violations as *ValidationError.
func Validate(name string, document []byte) error {
	schema, err := compile(name)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("document is not valid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]Violation, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" || field == "(root)" {
			field = "$"
		}
		violations = append(violations, Violation{Field: field, Message: desc.Description()})
	}
	sort.SliceStable(violations, func(i, j int) bool { return violations[i].Field < violations[j].Field })
	return &ValidationError{Schema: name, Violations: violations}
}

func compile(name string) (*gojsonschema.Schema, error) {
	mu.RLock()
	schema, ok := compiled[name]
	mu.RUnlock()
	if ok {
		return schema, nil
	}

	data, err := schemafiles.Read(name)
	if err != nil {
		return nil, &LoadError{Schema: name, Err: err}
	}
	schema, err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &LoadError{Schema: name, Err: err}
	}

	mu.Lock()
	compiled[name] = schema
	mu.Unlock()
	return schema, nil
}
