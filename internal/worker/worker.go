package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aura-webinar/recording-ingest/internal/lessons"
	"github.com/aura-webinar/recording-ingest/internal/models"
	"github.com/aura-webinar/recording-ingest/pkg/queue"
)

// Video platform encoding states carried by status events.
const (
	VideoStatusFinished         = 3
	VideoStatusResolutionFinish = 4
	VideoStatusFailed           = 5
)

// ErrVideoNotLinked means no lesson references the video yet. A status event can
// arrive before the ingestion run records the link, so the job is retried.
var ErrVideoNotLinked = errors.New("no lesson linked to video")

// StatusStore updates lesson recording state by hosted video id.
type StatusStore interface {
	UpdateRecordingStatus(ctx context.Context, videoObjectID, status string) error
}

// JobQueue is the subset of *queue.Queue the processor consumes.
type JobQueue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// StatusProcessor applies video status events to lessons: encoded videos
// become processed and failed encodes become failed.
type StatusProcessor struct {
	store       StatusStore
	queue       JobQueue
	logger      *zap.Logger
	pollTimeout time.Duration
	backoff     time.Duration
}

// NewStatusProcessor creates a video status processor.
func NewStatusProcessor(store StatusStore, q JobQueue, logger *zap.Logger) *StatusProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusProcessor{
		store:       store,
		queue:       q,
		logger:      logger,
		pollTimeout: 5 * time.Second,
		backoff:     queue.RetryBackoff,
	}
}

// TargetStatus maps a video platform status code to a lesson recording status.
// ok is false for codes that do not change the lesson.
func TargetStatus(code int) (status string, ok bool) {
	switch code {
	case VideoStatusFinished, VideoStatusResolutionFinish:
		return models.RecordingStatusProcessed, true
	case VideoStatusFailed:
		return models.RecordingStatusFailed, true
	default:
		return "", false
	}
}

// Process executes one status job.
func (p *StatusProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeVideoStatus {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.VideoStatusPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	status, ok := TargetStatus(payload.Status)
	if !ok {
		p.logger.Debug("ignoring video status", zap.String("video_guid", payload.VideoGUID), zap.Int("status", payload.Status))
		return nil
	}

	err := p.store.UpdateRecordingStatus(ctx, payload.VideoGUID, status)
	if errors.Is(err, lessons.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrVideoNotLinked, payload.VideoGUID)
	}
	if err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}

	p.logger.Info("lesson recording status updated",
		zap.String("video_guid", payload.VideoGUID),
		zap.String("status", status),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *StatusProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("status worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(context.WithoutCancel(ctx), job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *StatusProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
