package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jonathan/placement-matcher/internal/schemas"
)

// readJSON decodes the JSON file at path into v, checking it against schema first when one is named
func readJSON(path, schema string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if schema != "" {
		if err := schemas.Validate(schema, data); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeJSON writes v as indented JSON to path, or to out when path is empty
func writeJSON(out io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if path == "" {
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Output: %s\n", path)
	return nil
}
