// Package ingestion moves finished live-class recordings from the conferencing
// platform into the video platform and tracks the lesson's recording state.
package ingestion

import (
	"context"

	"github.com/google/uuid"

	"github.com/aura-webinar/recording-ingest/internal/models"
)

// CredentialResolver loads the platform credentials for a run.
type CredentialResolver interface {
	Resolve(ctx context.Context) (*models.Credentials, error)
}

// TokenBroker exchanges credentials for a conferencing bearer token.
type TokenBroker interface {
	Exchange(ctx context.Context, creds *models.Credentials) (string, error)
}

// RecordingLocator finds the primary recording of a conferencing session.
type RecordingLocator interface {
	Locate(ctx context.Context, token, sessionID string) (*models.RecordingAsset, error)
}

// VideoPlatform creates video objects and triggers remote fetches.
type VideoPlatform interface {
	CreateVideo(ctx context.Context, libraryID, apiKey, title string) (string, error)
	FetchVideo(ctx context.Context, libraryID, apiKey, videoGUID, sourceURL string) error
}

// LessonStore is the subset of the lesson store the pipeline reads and writes.
type LessonStore interface {
	ListByKind(ctx context.Context, kind string) ([]models.Lesson, error)
	MarkProcessing(ctx context.Context, id uuid.UUID, videoObjectID, sourceRecordingID string) error
}

// ReportSink persists finished run reports. Failures never fail the run.
type ReportSink interface {
	Save(ctx context.Context, report *models.RunReport) error
}
