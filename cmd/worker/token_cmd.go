package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aura-webinar/recording-ingest/config"
	"github.com/aura-webinar/recording-ingest/internal/auth"
)

func newTokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a bearer token for the scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			svc := auth.NewJWTService(cfg.Scheduler.JWTSecret, ttl)
			if !svc.Enabled() {
				return errors.New("SCHEDULER_JWT_SECRET is not set")
			}
			tok, err := svc.Generate()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 365*24*time.Hour, "token lifetime")
	return cmd
}
