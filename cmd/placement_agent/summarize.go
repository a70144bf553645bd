package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jonathan/placement-matcher/internal/observability"
	"github.com/spf13/cobra"
)

var (
	summarizeInputFile  string
	summarizeOutputFile string
	summarizeVerbose    bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize a job description into section requirements",
	Long:  "Extract the skills, experience, education, certifications and projects a job description asks for, as job description summary JSON.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return runSummarize(cmd.Context(), a, summarizeInputFile, summarizeOutputFile, summarizeVerbose, cmd.OutOrStdout())
	},
}

func init() {
	summarizeCmd.Flags().StringVarP(&summarizeInputFile, "in", "i", "", "Path to job description text file")
	summarizeCmd.Flags().StringVarP(&summarizeOutputFile, "out", "o", "", "Path to output JSON file (stdout when empty)")
	summarizeCmd.Flags().BoolVarP(&summarizeVerbose, "verbose", "v", false, "Print a formatted summary")
	_ = summarizeCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(ctx context.Context, a *app, in, outFile string, verbose bool, out io.Writer) error {
	text, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	summary, err := a.summarizer().Summarize(ctx, string(text))
	if err != nil {
		return fmt.Errorf("failed to summarize job description: %w", err)
	}

	if verbose {
		observability.NewPrinter(out).PrintJobSummary("", summary)
		if outFile == "" {
			return nil
		}
	}
	return writeJSON(out, outFile, summary)
}
