package main

import (
	"fmt"

	"github.com/jonathan/placement-matcher/internal/queue"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume shortlist requests from the AMQP queue",
	Long:  "Run shortlisting for every request on the request queue and publish each result to its reply-to queue or the result queue.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.cfg.Queue.URL == "" {
			return fmt.Errorf("queue URL is required (set AMQP_URL or queue.url)")
		}
		conn, ch, err := queue.Dial(a.cfg.Queue.URL)
		if err != nil {
			return err
		}
		defer conn.Close()
		defer ch.Close()

		store, err := a.history(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		w := queue.NewWorker(ch, a.engine(store), queue.Config{
			RequestQueue: a.cfg.Queue.RequestQueue,
			ResultQueue:  a.cfg.Queue.ResultQueue,
			Filters:      a.cfg.Shortlist.Filters(),
		}, a.logger)
		return w.Run(ctx)
	},
}

var (
	enqueueJDFile         string
	enqueueCandidatesFile string
	enqueueJDID           string
	enqueueReplyTo        string
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Publish a shortlist request to the AMQP queue",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if a.cfg.Queue.URL == "" {
			return fmt.Errorf("queue URL is required (set AMQP_URL or queue.url)")
		}
		req, err := loadShortlistRequest(enqueueJDFile, enqueueCandidatesFile, enqueueJDID)
		if err != nil {
			return err
		}

		conn, ch, err := queue.Dial(a.cfg.Queue.URL)
		if err != nil {
			return err
		}
		defer conn.Close()
		defer ch.Close()

		if err := queue.Declare(ch, a.cfg.Queue.RequestQueue); err != nil {
			return err
		}
		id, err := queue.Enqueue(ch, a.cfg.Queue.RequestQueue, req, enqueueReplyTo)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Enqueued request %s\n", id)
		return nil
	},
}

func init() {
	enqueueCmd.Flags().StringVar(&enqueueJDFile, "jd", "", "Path to job description summary JSON")
	enqueueCmd.Flags().StringVar(&enqueueCandidatesFile, "candidates", "", "Path to a JSON array of parsed resumes")
	enqueueCmd.Flags().StringVar(&enqueueJDID, "jd-id", "", "Job description id")
	enqueueCmd.Flags().StringVar(&enqueueReplyTo, "reply-to", "", "Queue the result is published to (defaults to the result queue)")
	_ = enqueueCmd.MarkFlagRequired("jd")
	_ = enqueueCmd.MarkFlagRequired("candidates")

	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(enqueueCmd)
}
