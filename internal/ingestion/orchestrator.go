package ingestion

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aura-webinar/recording-ingest/internal/conferencing"
	"github.com/aura-webinar/recording-ingest/internal/models"
)

// Orchestrator runs the three sink steps for one lesson: create the video
// placeholder, trigger the remote fetch, record the linkage on the lesson.
type Orchestrator struct {
	video        VideoPlatform
	store        LessonStore
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewOrchestrator creates an ingestion orchestrator. writeTimeout bounds the
// lesson state write; zero means DefaultRequestTimeout.
func NewOrchestrator(video VideoPlatform, store LessonStore, writeTimeout time.Duration, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if writeTimeout <= 0 {
		writeTimeout = DefaultRequestTimeout
	}
	return &Orchestrator{video: video, store: store, writeTimeout: writeTimeout, logger: logger}
}

// Ingest never returns an error; every failure is reported in the result.
// A placeholder created before a failed fetch is left in place and the lesson
// keeps its previous state, so the next run tries again.
func (o *Orchestrator) Ingest(ctx context.Context, lesson models.Lesson, asset *models.RecordingAsset, creds *models.Credentials, token string) models.IngestionResult {
	res := models.IngestionResult{LessonID: lesson.ID}
	log := o.logger.With(
		zap.String("lesson_id", lesson.ID.String()),
		zap.String("session_id", lesson.ConferenceSessionID),
		zap.String("recording_id", asset.ID),
	)

	guid, err := o.video.CreateVideo(ctx, creds.VideoLibraryID, creds.VideoAPIKey, videoTitle(lesson))
	if err != nil {
		log.Warn("create video placeholder failed", zap.Error(err))
		res.Outcome = models.OutcomeSinkCreateFailed
		res.ErrorDetail = err.Error()
		return res
	}
	res.VideoObjectID = guid
	log = log.With(zap.String("video_guid", guid))

	sourceURL, err := conferencing.AuthenticatedDownloadURL(asset.DownloadURL, token)
	if err == nil {
		err = o.video.FetchVideo(ctx, creds.VideoLibraryID, creds.VideoAPIKey, guid, sourceURL)
	}
	if err != nil {
		log.Warn("trigger video fetch failed; placeholder left in place", zap.Error(err))
		res.Outcome = models.OutcomeSinkFetchFailed
		res.ErrorDetail = err.Error()
		return res
	}

	writeCtx, cancel := context.WithTimeout(ctx, o.writeTimeout)
	err = o.store.MarkProcessing(writeCtx, lesson.ID, guid, asset.ID)
	cancel()
	if err != nil {
		log.Error("video fetch in flight but lesson state not saved", zap.Error(err))
		res.Outcome = models.OutcomeError
		res.ErrorDetail = "lesson state write failed after fetch was triggered: " + err.Error()
		return res
	}

	log.Info("recording ingestion initiated", zap.Int64("file_size", asset.FileSizeBytes))
	res.Outcome = models.OutcomeInitiated
	return res
}

func videoTitle(l models.Lesson) string {
	if t := strings.TrimSpace(l.Title); t != "" {
		return t
	}
	return l.ConferenceSessionID
}
