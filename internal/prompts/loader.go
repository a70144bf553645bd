// Package prompts holds the LLM prompt templates used for section scoring and candidate verdicts.
// Templates live in JSON catalogues embedded at compile time and use {{.Name}} placeholders.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Catalogue files and keys
const (
	MatchingFile     = "matching.json"
	ShortlistingFile = "shortlisting.json"

	SectionScoreKey     = "section-score"
	CandidateVerdictKey = "candidate-verdict"
)

var placeholderPattern = regexp.MustCompile(`\{\{\.([A-Za-z]+)\}\}`)

//go:embed *.json
var catalogueFS embed.FS

var (
	loadOnce   sync.Once
	catalogues map[string]map[string]string
	loadErr    error
)

// loadCatalogues parses every embedded catalogue once
func loadCatalogues() (map[string]map[string]string, error) {
	loadOnce.Do(func() {
		files, err := catalogueFS.ReadDir(".")
		if err != nil {
			loadErr = fmt.Errorf("failed to list prompt catalogues: %w", err)
			return
		}
		out := make(map[string]map[string]string, len(files))
		for _, f := range files {
			if path.Ext(f.Name()) != ".json" {
				continue
			}
			data, err := catalogueFS.ReadFile(f.Name())
			if err != nil {
				loadErr = fmt.Errorf("failed to read prompt catalogue %s: %w", f.Name(), err)
				return
			}
			var entries map[string]string
			if err := json.Unmarshal(data, &entries); err != nil {
				loadErr = fmt.Errorf("failed to parse prompt catalogue %s: %w", f.Name(), err)
				return
			}
			out[f.Name()] = entries
		}
		catalogues = out
	})
	return catalogues, loadErr
}

// Get returns the raw template stored under key in file
func Get(file, key string) (string, error) {
	all, err := loadCatalogues()
	if err != nil {
		return "", err
	}
	entries, ok := all[file]
	if !ok {
		return "", fmt.Errorf("prompt catalogue %s not found", file)
	}
	tmpl, ok := entries[key]
	if !ok {
		return "", fmt.Errorf("prompt %q not found in %s", key, file)
	}
	return tmpl, nil
}

// Keys returns the sorted template keys of a catalogue
func Keys(file string) ([]string, error) {
	all, err := loadCatalogues()
	if err != nil {
		return nil, err
	}
	entries, ok := all[file]
	if !ok {
		return nil, fmt.Errorf("prompt catalogue %s not found", file)
	}
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Placeholders returns the distinct placeholder names of a template in order of appearance
func Placeholders(tmpl string) []string {
	seen := map[string]bool{}
	var names []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Render fills every placeholder of the template from data. A placeholder without a value is an
// error; values are inserted verbatim and never re-expanded.
func Render(file, key string, data map[string]string) (string, error) {
	tmpl, err := Get(file, key)
	if err != nil {
		return "", err
	}

	var missing []string
	out := placeholderPattern.ReplaceAllStringFunc(tmpl, func(ph string) string {
		name := placeholderPattern.FindStringSubmatch(ph)[1]
		value, ok := data[name]
		if !ok {
			missing = append(missing, name)
			return ph
		}
		return value
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt %s/%s is missing values for %s", file, key, strings.Join(missing, ", "))
	}
	return out, nil
}
