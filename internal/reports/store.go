// Package reports keeps recent run reports in Redis and archives each one to S3.
package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aura-webinar/recording-ingest/internal/models"
)

const (
	// KeyLast holds the most recent report.
	KeyLast = "ingestion:last_report"
	// KeyHistory is a capped list of recent reports, newest first.
	KeyHistory = "ingestion:reports"
	// HistorySize is how many reports KeyHistory keeps.
	HistorySize = 50
	// LastTTL bounds how long the latest report stays readable.
	LastTTL = 7 * 24 * time.Hour
)

// Archiver stores a report body durably. *storage.S3 implements it.
type Archiver interface {
	PutReport(ctx context.Context, startedAt time.Time, runID string, body []byte) (string, error)
}

// Store persists run reports.
type Store struct {
	client  *redis.Client
	archive Archiver // optional
	logger  *zap.Logger
}

// NewStore creates a report store. archive may be nil.
func NewStore(client *redis.Client, archive Archiver, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, archive: archive, logger: logger}
}

// Save writes the report to Redis and, when configured, to the archive.
// Both are attempted; the first error is returned.
func (s *Store) Save(ctx context.Context, report *models.RunReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	var firstErr error
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, KeyLast, raw, LastTTL)
		p.LPush(ctx, KeyHistory, raw)
		p.LTrim(ctx, KeyHistory, 0, HistorySize-1)
		return nil
	})
	if err != nil {
		firstErr = fmt.Errorf("cache report: %w", err)
	}

	if s.archive != nil {
		key, err := s.archive.PutReport(ctx, report.StartedAt, report.RunID.String(), raw)
		if err != nil {
			s.logger.Warn("archive run report failed", zap.Error(err), zap.String("run_id", report.RunID.String()))
			if firstErr == nil {
				firstErr = fmt.Errorf("archive report: %w", err)
			}
		} else {
			s.logger.Info("run report archived", zap.String("key", key))
		}
	}
	return firstErr
}

// Latest returns the most recent report, or nil when none is stored.
func (s *Store) Latest(ctx context.Context) (*models.RunReport, error) {
	raw, err := s.client.Get(ctx, KeyLast).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last report: %w", err)
	}
	var r models.RunReport
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode last report: %w", err)
	}
	return &r, nil
}

// History returns up to n recent reports, newest first. Undecodable entries are skipped.
func (s *Store) History(ctx context.Context, n int) ([]models.RunReport, error) {
	if n <= 0 || n > HistorySize {
		n = HistorySize
	}
	items, err := s.client.LRange(ctx, KeyHistory, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	out := make([]models.RunReport, 0, len(items))
	for _, it := range items {
		var r models.RunReport
		if err := json.Unmarshal([]byte(it), &r); err != nil {
			s.logger.Warn("invalid report in history", zap.Error(err))
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
