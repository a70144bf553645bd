package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jonathan/placement-matcher/internal/matching"
	"github.com/jonathan/placement-matcher/internal/observability"
	"github.com/jonathan/placement-matcher/internal/types"
	schemafiles "github.com/jonathan/placement-matcher/schemas"
	"github.com/spf13/cobra"
)

type matchOptions struct {
	cvFile      string
	jdFile      string
	weightsFile string
	useLLM      bool
	outFile     string
	verbose     bool
}

var matchOpts matchOptions

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score one parsed resume against one summarized job description",
	Long:  "Compare a parsed resume with a summarized job description section by section and print the weighted match score.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if !cmd.Flags().Changed("use-llm") {
			matchOpts.useLLM = a.cfg.Matching.UseLLM
		}
		return runMatch(cmd.Context(), a, matchOpts, cmd.OutOrStdout())
	},
}

func init() {
	matchCmd.Flags().StringVar(&matchOpts.cvFile, "cv", "", "Path to parsed resume JSON")
	matchCmd.Flags().StringVar(&matchOpts.jdFile, "jd", "", "Path to job description summary JSON")
	matchCmd.Flags().StringVar(&matchOpts.weightsFile, "weights", "", "Path to section weights JSON (defaults to configured weights)")
	matchCmd.Flags().BoolVar(&matchOpts.useLLM, "use-llm", false, "Refine ambiguous sections with the LLM")
	matchCmd.Flags().StringVarP(&matchOpts.outFile, "out", "o", "", "Path to output JSON file (stdout when empty)")
	matchCmd.Flags().BoolVarP(&matchOpts.verbose, "verbose", "v", false, "Print a formatted summary")

	_ = matchCmd.MarkFlagRequired("cv")
	_ = matchCmd.MarkFlagRequired("jd")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(ctx context.Context, a *app, opts matchOptions, out io.Writer) error {
	var cv types.CandidateRecord
	if err := readJSON(opts.cvFile, schemafiles.Candidate, &cv); err != nil {
		return err
	}
	var jd types.JobDescriptionSummary
	if err := readJSON(opts.jdFile, schemafiles.JobDescription, &jd); err != nil {
		return err
	}

	weights := a.cfg.Matching.WeightSet()
	if opts.weightsFile != "" {
		weights = types.WeightSet{}
		if err := readJSON(opts.weightsFile, "", &weights); err != nil {
			return err
		}
	}

	matcher, err := a.matcher(ctx)
	if err != nil {
		return err
	}
	result, err := matcher.Match(ctx, cv, jd, matching.MatchOptions{Weights: weights, UseLLM: opts.useLLM})
	if err != nil {
		return fmt.Errorf("failed to match %s: %w", cv.DisplayName(), err)
	}

	if opts.verbose {
		observability.NewPrinter(out).PrintMatchResult(result)
		if opts.outFile == "" {
			return nil
		}
	}
	return writeJSON(out, opts.outFile, result)
}
