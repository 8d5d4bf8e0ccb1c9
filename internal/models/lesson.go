package models

import (
	"time"

	"github.com/google/uuid"
)

// LessonKindLiveClass marks lessons backed by a conferencing session.
const LessonKindLiveClass = "live_class"

// RecordingStatus values stored on a lesson. An empty status means the lesson
// has never been looked at by the ingestion pipeline.
const (
	RecordingStatusAbsent     = ""
	RecordingStatusPending    = "pending"
	RecordingStatusProcessing = "processing"
	RecordingStatusProcessed  = "processed"
	RecordingStatusFailed     = "failed"
)

// Lesson is a course lesson; only the live-class and recording fields matter here.
type Lesson struct {
	ID                  uuid.UUID `json:"id"`
	CourseID            uuid.UUID `json:"course_id"`
	Title               string    `json:"title"`
	Kind                string    `json:"kind"`
	StartTime           time.Time `json:"start_time"`
	DurationMinutes     int       `json:"duration_minutes"`
	ConferenceSessionID string    `json:"conference_session_id,omitempty"`
	RecordingStatus     string    `json:"recording_status,omitempty"`
	VideoObjectID       string    `json:"video_object_id,omitempty"`
	SourceRecordingID   string    `json:"source_recording_id,omitempty"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// EndTime returns the scheduled end of the live session.
func (l Lesson) EndTime() time.Time {
	return l.StartTime.Add(time.Duration(l.DurationMinutes) * time.Minute)
}

// NeedsRecording reports whether the recording state is in the needs-work set
// (absent or pending). Anything else, known or not, counts as done.
func (l Lesson) NeedsRecording() bool {
	return l.RecordingStatus == RecordingStatusAbsent || l.RecordingStatus == RecordingStatusPending
}
