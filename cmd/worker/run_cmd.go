package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/aura-webinar/recording-ingest/config"
	"github.com/aura-webinar/recording-ingest/internal/app"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one ingestion batch and print the report",
		Long:  "Run one recording ingestion batch against the configured platforms and print the JSON run report to stdout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			defer logger.Sync()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			infra, err := app.Open(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer infra.Close()

			runner := app.NewRunner(cfg, infra.Pool, infra.Lessons, infra.Reports, nil, logger)
			report, err := runner.Run(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}
