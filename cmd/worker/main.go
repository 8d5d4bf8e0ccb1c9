// Package main is the operator CLI: one-shot ingestion runs, lesson resets,
// the standalone video status consumer and scheduler token minting.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "worker",
		Short:         "Recording ingestion worker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newResetCmd(), newConsumeCmd(), newTokenCmd())
	return root
}

func main() {
	logger := newLogger()
	defer logger.Sync()

	if err := newRootCmd().Execute(); err != nil {
		logger.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{"stderr"}
	logger, _ := config.Build()
	return logger
}
