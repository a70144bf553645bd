package main

import (
	"context"

	"github.com/jonathan/placement-matcher/internal/config"
	"github.com/jonathan/placement-matcher/internal/history"
	"github.com/jonathan/placement-matcher/internal/server"
	"github.com/jonathan/placement-matcher/internal/server/ratelimit"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for matching, summarizing and shortlisting.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if cmd.Flags().Changed("port") {
			a.cfg.Server.Port = servePort
		}
		srv, closeStore, err := buildServer(cmd.Context(), a)
		if err != nil {
			return err
		}
		defer closeStore()
		return srv.Start(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

// buildServer wires the HTTP server; the returned func closes the score store.
// With a retention window configured, old score rows are swept until ctx is done.
func buildServer(ctx context.Context, a *app) (*server.Server, func() error, error) {
	matcher, err := a.matcher(ctx)
	if err != nil {
		return nil, nil, err
	}
	store, err := a.history(ctx)
	if err != nil {
		return nil, nil, err
	}

	deps := server.Dependencies{
		Matcher:     matcher,
		Shortlister: a.engine(store),
		Summarizer:  a.summarizer(),
		History:     store,
		RateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig(a.cfg.RateLimit)),
		Defaults: server.Defaults{
			Weights: a.cfg.Matching.WeightSet(),
			UseLLM:  a.cfg.Matching.UseLLM,
			Filters: a.cfg.Shortlist.Filters(),
		},
		Logger: a.logger,
	}

	if a.cfg.Auth.Enabled() {
		jwtCfg, err := config.NewJWTConfig(a.cfg.Auth)
		if err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		deps.TokenValidator = server.NewJWTService(jwtCfg).AsTokenValidator()
	}

	srv := server.New(server.Config{
		Port:            a.cfg.Server.Port,
		ReadTimeout:     a.cfg.Server.ReadTimeout,
		WriteTimeout:    a.cfg.Server.WriteTimeout,
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
		CORSOrigin:      a.cfg.Server.CORSOrigin,
	}, deps)

	if a.cfg.History.Retention > 0 {
		janitor := history.NewJanitor(store, history.Options{Retention: a.cfg.History.Retention}, history.DefaultSweepInterval, a.logger)
		go janitor.Run(ctx)
	}
	return srv, store.Close, nil
}
