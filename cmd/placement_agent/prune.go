package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var pruneOlderThan time.Duration

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete recorded scores older than a duration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return runPrune(cmd.Context(), a, pruneOlderThan, time.Now(), cmd.OutOrStdout())
	},
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 720*time.Hour, "Delete scores recorded before now minus this duration")
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(ctx context.Context, a *app, olderThan time.Duration, now time.Time, out io.Writer) error {
	if olderThan <= 0 {
		return fmt.Errorf("--older-than must be positive")
	}
	store, err := a.history(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	cutoff := now.UTC().Add(-olderThan)
	n, err := store.Prune(ctx, cutoff)
	if err != nil {
		return err
	}
	a.logger.Info("pruned score history", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	_, _ = fmt.Fprintf(out, "Pruned %d records older than %s\n", n, cutoff.Format(time.RFC3339))
	return nil
}
