// Package app wires configuration into the ingestion pipeline and its backing stores.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/aura-webinar/recording-ingest/config"
	"github.com/aura-webinar/recording-ingest/internal/conferencing"
	"github.com/aura-webinar/recording-ingest/internal/ingestion"
	"github.com/aura-webinar/recording-ingest/internal/lessons"
	"github.com/aura-webinar/recording-ingest/internal/metrics"
	"github.com/aura-webinar/recording-ingest/internal/reports"
	"github.com/aura-webinar/recording-ingest/internal/settings"
	"github.com/aura-webinar/recording-ingest/internal/videoplatform"
	"github.com/aura-webinar/recording-ingest/pkg/database"
	"github.com/aura-webinar/recording-ingest/pkg/redis"
	"github.com/aura-webinar/recording-ingest/pkg/storage"
)

// Infra holds the connections shared by the server and the CLI.
type Infra struct {
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Lessons *lessons.Repository
	Reports *reports.Store
}

// Open connects to PostgreSQL and Redis, applies migrations and, when a
// reports bucket is configured, prepares the S3 archive.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Infra, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), int32(cfg.Ingestion.Workers+4), logger)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if err := database.Migrate(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}

	infra := &Infra{Pool: pool, Redis: rdb, Lessons: lessons.NewRepository(pool)}

	var archive reports.Archiver
	if cfg.AWS.ReportsBucket != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			ReportsBucket:   cfg.AWS.ReportsBucket,
		}, logger)
		if err != nil {
			logger.Warn("report archive disabled", zap.Error(err))
		} else {
			archive = s3Client
		}
	}
	infra.Reports = reports.NewStore(rdb.Client, archive, logger)
	return infra, nil
}

// Close releases all connections.
func (i *Infra) Close() {
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
	if i.Pool != nil {
		i.Pool.Close()
	}
}

// NewRunner assembles the ingestion runner. sink and m may be nil.
func NewRunner(cfg *config.Config, pool *pgxpool.Pool, store *lessons.Repository, sink ingestion.ReportSink, m *metrics.Pipeline, logger *zap.Logger) *ingestion.Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := NewHTTPClient(cfg.Ingestion.RunTimeout)
	timeout := cfg.Ingestion.RequestTimeout

	return ingestion.NewRunner(ingestion.Deps{
		Credentials:  settings.NewRepository(pool, cfg.Ingestion.SettingsID),
		Tokens:       conferencing.NewTokenBroker(cfg.Zoom.TokenURL, httpClient, timeout, logger),
		Selector:     ingestion.NewSelector(store, cfg.Ingestion.SafetyMargin),
		Locator:      conferencing.NewClient(cfg.Zoom.APIBaseURL, httpClient, timeout, logger),
		Orchestrator: ingestion.NewOrchestrator(videoplatform.NewClient(cfg.Bunny.APIBaseURL, httpClient, timeout, logger), store, timeout, logger),
		Reports:      sink,
		Metrics:      m,
	}, ingestion.RunnerConfig{
		Lookback:       cfg.Ingestion.Lookback,
		Workers:        cfg.Ingestion.Workers,
		RunTimeout:     cfg.Ingestion.RunTimeout,
		RequestTimeout: timeout,
	}, logger)
}

// NewHTTPClient returns the client shared by the platform integrations.
// Per-call deadlines come from request contexts; limit is a backstop for any
// call that escapes them. Zero disables it.
func NewHTTPClient(limit time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 16
	transport.IdleConnTimeout = 90 * time.Second
	return &http.Client{Transport: transport, Timeout: limit}
}
