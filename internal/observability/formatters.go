// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/placement-matcher/internal/logging"
	"github.com/jonathan/placement-matcher/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// clip shortens s to at most n runes including the ellipsis
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return logging.Truncate(s, n-3)
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, clip(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintJobSummary outputs the per-section requirements of a summarized job description.
func (p *Printer) PrintJobSummary(jdID string, summary types.JobDescriptionSummary) {
	var sb strings.Builder
	if jdID != "" {
		sb.WriteString(fmt.Sprintf("Job:  %s\n\n", jdID))
	}
	for _, key := range types.AllSections {
		value := summary.Section(key)
		if value.IsEmpty() {
			sb.WriteString(fmt.Sprintf("%-15s -\n", sectionLabel(key)+":"))
			continue
		}
		sb.WriteString(fmt.Sprintf("%-15s %s\n", sectionLabel(key)+":", value.String()))
	}

	p.printBox("JOB DESCRIPTION SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMatchResult outputs per-section scores and the final match score.
func (p *Printer) PrintMatchResult(result *types.MatchResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Final match score: %.2f\n\n", result.FinalMatchScore))

	keys := make([]types.SectionKey, 0, len(result.Sections))
	for _, key := range types.AllSections {
		if _, ok := result.Sections[key]; ok {
			keys = append(keys, key)
		}
	}
	for _, key := range keys {
		s := result.Sections[key]
		line := fmt.Sprintf("%-15s %6.2f  x%5.1f%% = %6.2f", sectionLabel(key), s.Score, s.Weight, s.Weighted)
		if s.LLMConsulted {
			line += "  (LLM)"
		}
		sb.WriteString(line + "\n")
	}

	if result.Explanation != "" {
		sb.WriteString("\n" + result.Explanation)
	}

	p.printBox("MATCH RESULT", strings.TrimSuffix(sb.String(), "\n"))

	if len(result.Failures) > 0 {
		p.printFailures(result.Failures)
	}
}

func (p *Printer) printFailures(failures map[types.SectionKey]string) {
	keys := make([]string, 0, len(failures))
	for key := range failures {
		keys = append(keys, string(key))
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d sections scored 0:\n\n", len(keys)))
	for i, key := range keys {
		sb.WriteString(fmt.Sprintf("⚠ %s\n", sectionLabel(types.SectionKey(key))))
		sb.WriteString(fmt.Sprintf("  %s\n", clip(failures[types.SectionKey(key)], 45)))
		if i < len(keys)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("SECTION FAILURES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintLeaderboard outputs the top entries of a shortlisting run.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintLeaderboard(result *types.ShortlistResult) {
	if result == nil {
		return
	}
	if len(result.Leaderboard) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, fmt.Sprintf("NO CANDIDATES ABOVE %.1f", result.DynamicMinScore))
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Job: %s\n", result.JDID))
	sb.WriteString(fmt.Sprintf("Evaluated %d, shortlisted %d (min score %.1f)\n\n",
		result.Evaluated, len(result.Leaderboard), result.DynamicMinScore))

	count := min(len(result.Leaderboard), maxItemsToShow)
	for i := 0; i < count; i++ {
		entry := result.Leaderboard[i]
		sb.WriteString(fmt.Sprintf("#%d  %s  %d%%\n", i+1, entry.Name, entry.Score))
		if len(entry.Skills) > 0 {
			sb.WriteString(fmt.Sprintf("    Skills: %s\n", clip(strings.Join(entry.Skills, ", "), 40)))
		}
		if entry.Gap != "" {
			sb.WriteString(fmt.Sprintf("    Gap: %s\n", clip(entry.Gap, 43)))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(result.Leaderboard) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more candidates", len(result.Leaderboard)-maxItemsToShow))
	}

	p.printBox("SHORTLIST", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintStatistics outputs the score distribution of a job description.
func (p *Printer) PrintStatistics(jdID string, stats types.ScoreStatistics, dynamicMin float64, count int) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Job:        %s\n", jdID))
	sb.WriteString(fmt.Sprintf("Scores:     %d\n\n", count))
	sb.WriteString(fmt.Sprintf("Mean:       %.2f\n", stats.Mean))
	sb.WriteString(fmt.Sprintf("Median:     %.2f\n", stats.Median))
	sb.WriteString(fmt.Sprintf("Std dev:    %.2f\n", stats.Std))
	sb.WriteString(fmt.Sprintf("Suggested:  %.2f\n", stats.SuggestedMinScore))
	sb.WriteString(fmt.Sprintf("Dynamic min: %.2f", dynamicMin))

	p.printBox("SCORE STATISTICS", sb.String())
}

func sectionLabel(key types.SectionKey) string {
	s := string(key)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
