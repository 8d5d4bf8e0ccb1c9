package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aura-webinar/recording-ingest/config"
	"github.com/aura-webinar/recording-ingest/internal/lessons"
	"github.com/aura-webinar/recording-ingest/internal/worker"
	"github.com/aura-webinar/recording-ingest/pkg/database"
	"github.com/aura-webinar/recording-ingest/pkg/queue"
	"github.com/aura-webinar/recording-ingest/pkg/redis"
)

func newConsumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Apply queued video status events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			defer logger.Sync()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), 4, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
			if err != nil {
				return err
			}
			defer rdb.Close()

			processor := worker.NewStatusProcessor(lessons.NewRepository(pool), queue.NewQueue(rdb.Client, logger), logger)
			logger.Info("status worker started")
			processor.Run(ctx)
			logger.Info("status worker stopped", zap.String("queue", queue.QueueVideoStatus))
			return nil
		},
	}
}
