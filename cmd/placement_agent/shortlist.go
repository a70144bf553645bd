package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/jonathan/placement-matcher/internal/logging"
	"github.com/jonathan/placement-matcher/internal/observability"
	"github.com/jonathan/placement-matcher/internal/types"
	schemafiles "github.com/jonathan/placement-matcher/schemas"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type shortlistOptions struct {
	jdFile         string
	candidatesFile string
	jdID           string
	filters        types.FilterSet
	outFile        string
	verbose        bool
}

var shortlistOpts shortlistOptions

var shortlistCmd = &cobra.Command{
	Use:   "shortlist",
	Short: "Rank candidates for a job description",
	Long:  "Score every candidate with the LLM verdict, record the scores and print the leaderboard above the adaptive minimum score.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		defaults := a.cfg.Shortlist.Filters()
		if !cmd.Flags().Changed("min-score") {
			shortlistOpts.filters.MinScore = defaults.MinScore
		}
		if !cmd.Flags().Changed("require-cert") {
			shortlistOpts.filters.RequireCert = defaults.RequireCert
		}
		if !cmd.Flags().Changed("top-n") {
			shortlistOpts.filters.TopN = defaults.TopN
		}
		return runShortlist(cmd.Context(), a, shortlistOpts, cmd.OutOrStdout())
	},
}

func init() {
	shortlistCmd.Flags().StringVar(&shortlistOpts.jdFile, "jd", "", "Path to job description summary JSON")
	shortlistCmd.Flags().StringVar(&shortlistOpts.candidatesFile, "candidates", "", "Path to a JSON array of parsed resumes")
	shortlistCmd.Flags().StringVar(&shortlistOpts.jdID, "jd-id", "", "Job description id the scores are recorded under (generated when empty)")
	shortlistCmd.Flags().IntVar(&shortlistOpts.filters.MinScore, "min-score", 50, "Minimum score before history adjustment")
	shortlistCmd.Flags().BoolVar(&shortlistOpts.filters.RequireCert, "require-cert", false, "Keep only candidates holding the first required certification")
	shortlistCmd.Flags().IntVar(&shortlistOpts.filters.TopN, "top-n", 10, "Leaderboard size (0 keeps every entry)")
	shortlistCmd.Flags().StringVarP(&shortlistOpts.outFile, "out", "o", "", "Path to output JSON file (stdout when empty)")
	shortlistCmd.Flags().BoolVarP(&shortlistOpts.verbose, "verbose", "v", false, "Print a formatted leaderboard")

	_ = shortlistCmd.MarkFlagRequired("jd")
	_ = shortlistCmd.MarkFlagRequired("candidates")
	rootCmd.AddCommand(shortlistCmd)
}

func runShortlist(ctx context.Context, a *app, opts shortlistOptions, out io.Writer) error {
	req, err := loadShortlistRequest(opts.jdFile, opts.candidatesFile, opts.jdID)
	if err != nil {
		return err
	}
	jdID := req.JDID

	store, err := a.history(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := a.engine(store).Shortlist(ctx, jdID, *req.JDSummary, req.Candidates, opts.filters)
	if err != nil {
		return err
	}
	logging.WithJob(a.logger, jdID).Info("shortlist complete",
		zap.Int("evaluated", result.Evaluated),
		zap.Int("shortlisted", len(result.Leaderboard)))

	if opts.verbose {
		observability.NewPrinter(out).PrintLeaderboard(result)
		if opts.outFile == "" {
			return nil
		}
	}
	return writeJSON(out, opts.outFile, result)
}

// loadShortlistRequest reads the job description and candidates files; an empty jdID is generated
func loadShortlistRequest(jdFile, candidatesFile, jdID string) (types.ShortlistRequest, error) {
	var jd types.JobDescriptionSummary
	if err := readJSON(jdFile, schemafiles.JobDescription, &jd); err != nil {
		return types.ShortlistRequest{}, err
	}
	var candidates []types.CandidateRecord
	if err := readJSON(candidatesFile, "", &candidates); err != nil {
		return types.ShortlistRequest{}, err
	}
	if len(candidates) == 0 {
		return types.ShortlistRequest{}, fmt.Errorf("no candidates provided")
	}
	if jdID == "" {
		jdID = "jd_" + uuid.NewString()[:8]
	}
	return types.ShortlistRequest{JDID: jdID, JDSummary: &jd, Candidates: candidates}, nil
}
