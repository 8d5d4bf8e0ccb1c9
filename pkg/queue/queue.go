package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueueVideoStatus is the Redis list key for video platform status events.
	QueueVideoStatus = "ingestion:video_status"
	// QueueDLQ is the dead-letter queue for events that failed after retries.
	QueueDLQ = "ingestion:dlq"
	// MaxRetries is the number of attempts before an event moves to the DLQ.
	MaxRetries = 3
	// RetryBackoff is the default delay between retries.
	RetryBackoff = 10 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeVideoStatus JobType = "video_status"
)

// VideoStatusPayload is a status notification for one hosted video.
type VideoStatusPayload struct {
	VideoLibraryID string `json:"video_library_id"`
	VideoGUID      string `json:"video_guid"`
	Status         int    `json:"status"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// Queue enqueues and dequeues jobs via Redis.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// EnqueueVideoStatus enqueues a video status event.
func (q *Queue) EnqueueVideoStatus(ctx context.Context, payload VideoStatusPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	job := Job{
		ID:        uuid.New().String(),
		Type:      JobTypeVideoStatus,
		Payload:   body,
		CreatedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, QueueVideoStatus, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	q.logger.Debug("enqueued video status job", zap.String("job_id", job.ID), zap.String("video_guid", payload.VideoGUID))
	return nil
}

// Dequeue waits up to timeout for a job. A nil job with nil error means nothing
// arrived in time or the entry was malformed.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, timeout, QueueVideoStatus).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return &job, nil
}

// Retry re-enqueues a job with incremented attempt. Once attempt reaches MaxRetries it goes to the DLQ.
func (q *Queue) Retry(ctx context.Context, job *Job) error {
	job.Attempt++
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if job.Attempt >= MaxRetries {
		if err := q.client.RPush(ctx, QueueDLQ, raw).Err(); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return err
		}
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	if err := q.client.RPush(ctx, QueueVideoStatus, raw).Err(); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}

// DeadLetters returns the number of jobs in the DLQ.
func (q *Queue) DeadLetters(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, QueueDLQ).Result()
}
