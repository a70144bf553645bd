package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jonathan/placement-matcher/internal/config"
	"github.com/jonathan/placement-matcher/internal/server"
	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API bearer token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return runToken(cfg.Auth, tokenSubject, tokenTTL, cmd.OutOrStdout())
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "Client name the token is issued to")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (defaults to auth.jwt_expiration)")
	_ = tokenCmd.MarkFlagRequired("subject")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(auth config.AuthConfig, subject string, ttl time.Duration, out io.Writer) error {
	jwtCfg, err := config.NewJWTConfig(auth)
	if err != nil {
		return err
	}
	token, err := server.NewJWTService(jwtCfg).GenerateToken(subject, ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
