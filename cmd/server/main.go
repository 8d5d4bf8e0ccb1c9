// Package main runs the recording ingestion HTTP server: scheduler trigger,
// video status webhook, run history and metrics, with graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-webinar/recording-ingest/config"
	"github.com/aura-webinar/recording-ingest/internal/app"
	"github.com/aura-webinar/recording-ingest/internal/auth"
	"github.com/aura-webinar/recording-ingest/internal/metrics"
	"github.com/aura-webinar/recording-ingest/internal/middleware"
	"github.com/aura-webinar/recording-ingest/internal/recordings"
	"github.com/aura-webinar/recording-ingest/internal/worker"
	"github.com/aura-webinar/recording-ingest/pkg/queue"
	"github.com/aura-webinar/recording-ingest/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	infra, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("startup", zap.Error(err))
	}
	defer infra.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pipelineMetrics := metrics.NewPipeline(reg)

	runner := app.NewRunner(cfg, infra.Pool, infra.Lessons, infra.Reports, pipelineMetrics, logger)
	recordingHandler := recordings.NewHandler(runner, infra.Reports, logger)

	jobQueue := queue.NewQueue(infra.Redis.Client, logger)
	webhookHandler := recordings.NewWebhookHandler(jobQueue, logger)
	statusProcessor := worker.NewStatusProcessor(infra.Lessons, jobQueue, logger)

	jwtService := auth.NewJWTService(cfg.Scheduler.JWTSecret, 0)
	if !jwtService.Enabled() {
		logger.Warn("SCHEDULER_JWT_SECRET not set; trigger endpoint is unauthenticated")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger, "/health", "/metrics"))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	cron := router.Group("/api/cron")
	cron.Use(middleware.SchedulerJWT(jwtService))
	{
		cron.GET("/process-recordings", recordingHandler.ProcessRecordings)
		cron.GET("/process-recordings/last", recordingHandler.LastReport)
		cron.GET("/process-recordings/history", recordingHandler.History)
	}

	router.POST("/webhooks/video-status", webhookHandler.VideoStatus)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		statusProcessor.Run(workerCtx)
	}()
	logger.Info("status worker started")

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Ingestion.RunTimeout+15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	workerCancel()
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		logger.Warn("status worker did not stop in time")
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
