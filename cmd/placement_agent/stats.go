package main

import (
	"context"
	"io"

	"github.com/jonathan/placement-matcher/internal/observability"
	"github.com/spf13/cobra"
)

var (
	statsJDID    string
	statsVerbose bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the score statistics of a job description",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return runStats(cmd.Context(), a, statsJDID, statsVerbose, cmd.OutOrStdout())
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsJDID, "jd-id", "", "Job description id")
	statsCmd.Flags().BoolVarP(&statsVerbose, "verbose", "v", false, "Print a formatted summary")
	_ = statsCmd.MarkFlagRequired("jd-id")
	rootCmd.AddCommand(statsCmd)
}

func runStats(ctx context.Context, a *app, jdID string, verbose bool, out io.Writer) error {
	store, err := a.history(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, dynamicMin, count, err := a.engine(store).Statistics(ctx, jdID, a.cfg.Shortlist.MinScore)
	if err != nil {
		return err
	}

	if verbose {
		observability.NewPrinter(out).PrintStatistics(jdID, stats, dynamicMin, count)
		return nil
	}
	return writeJSON(out, "", map[string]any{
		"jd_id":             jdID,
		"count":             count,
		"statistics":        stats,
		"dynamic_min_score": dynamicMin,
	})
}
