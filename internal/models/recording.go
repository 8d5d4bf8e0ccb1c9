package models

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the per-lesson result of one ingestion attempt.
type Outcome string

const (
	OutcomeInitiated        Outcome = "initiated"
	OutcomeNoRecordingFound Outcome = "no_recording_found"
	OutcomeLocatorFailed    Outcome = "locator_failed"
	OutcomeSinkCreateFailed Outcome = "sink_create_failed"
	OutcomeSinkFetchFailed  Outcome = "sink_fetch_failed"
	// OutcomeError means the video platform accepted the transfer but the lesson
	// row could not be updated, or the attempt failed in an unexpected way.
	OutcomeError Outcome = "error"
)

// RecordingAsset is one recording file offered by the conferencing platform.
type RecordingAsset struct {
	ID            string `json:"id"`
	FileType      string `json:"file_type"`
	FileSizeBytes int64  `json:"file_size"`
	DownloadURL   string `json:"download_url"`
	SessionID     string `json:"session_id"`
}

// Credentials are the platform secrets read from the settings record.
type Credentials struct {
	VideoLibraryID           string `json:"bunny_library_id"`
	VideoAPIKey              string `json:"bunny_api_key"`
	ConferencingAccountID    string `json:"zoom_account_id"`
	ConferencingClientID     string `json:"zoom_client_id"`
	ConferencingClientSecret string `json:"zoom_client_secret"`
}

// IngestionResult is one entry of a run report.
type IngestionResult struct {
	LessonID      uuid.UUID `json:"lesson_id"`
	Outcome       Outcome   `json:"outcome"`
	VideoObjectID string    `json:"video_object_id,omitempty"`
	ErrorDetail   string    `json:"error_detail,omitempty"`
}

// RunReport aggregates the results of one batch run.
type RunReport struct {
	RunID          uuid.UUID         `json:"run_id"`
	StartedAt      time.Time         `json:"started_at"`
	FinishedAt     time.Time         `json:"finished_at"`
	ProcessedCount int               `json:"processed"`
	SkippedCount   int               `json:"skipped"`
	Results        []IngestionResult `json:"results"`
}

// Count returns how many results carry the given outcome.
func (r *RunReport) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}
