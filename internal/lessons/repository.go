package lessons

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-webinar/recording-ingest/internal/models"
)

// ErrNotFound is returned when no lesson matches.
var ErrNotFound = errors.New("lesson not found")

const selectColumns = `id, course_id, title, kind, start_time, duration_minutes, COALESCE(conference_session_id,''),
	COALESCE(recording_status,''), COALESCE(video_object_id,''), COALESCE(source_recording_id,''), updated_at`

// Repository handles lesson persistence for the recording pipeline.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a lessons repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanLesson(row pgx.Row) (*models.Lesson, error) {
	var l models.Lesson
	err := row.Scan(&l.ID, &l.CourseID, &l.Title, &l.Kind, &l.StartTime, &l.DurationMinutes, &l.ConferenceSessionID,
		&l.RecordingStatus, &l.VideoObjectID, &l.SourceRecordingID, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListByKind returns every lesson of the given kind across all courses.
func (r *Repository) ListByKind(ctx context.Context, kind string) ([]models.Lesson, error) {
	q := `SELECT ` + selectColumns + ` FROM lessons WHERE kind = $1`
	rows, err := r.pool.Query(ctx, q, kind)
	if err != nil {
		return nil, fmt.Errorf("query lessons: %w", err)
	}
	defer rows.Close()
	var list []models.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		list = append(list, *l)
	}
	return list, rows.Err()
}

// GetByID returns a lesson by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Lesson, error) {
	q := `SELECT ` + selectColumns + ` FROM lessons WHERE id = $1`
	l, err := scanLesson(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

// MarkProcessing links the lesson to the video object and source recording and
// moves it to processing in a single statement.
func (r *Repository) MarkProcessing(ctx context.Context, id uuid.UUID, videoObjectID, sourceRecordingID string) error {
	const q = `UPDATE lessons SET recording_status = $1, video_object_id = $2, source_recording_id = $3, updated_at = NOW() WHERE id = $4`
	tag, err := r.pool.Exec(ctx, q, models.RecordingStatusProcessing, videoObjectID, sourceRecordingID, id)
	if err != nil {
		return fmt.Errorf("mark lesson processing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRecordingStatus sets the recording status of the lesson owning videoObjectID.
func (r *Repository) UpdateRecordingStatus(ctx context.Context, videoObjectID, status string) error {
	const q = `UPDATE lessons SET recording_status = $1, updated_at = NOW() WHERE video_object_id = $2`
	tag, err := r.pool.Exec(ctx, q, status, videoObjectID)
	if err != nil {
		return fmt.Errorf("update recording status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetRecording puts a lesson back into the needs-work set and drops its sink references.
func (r *Repository) ResetRecording(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE lessons SET recording_status = $1, video_object_id = NULL, source_recording_id = NULL, updated_at = NOW() WHERE id = $2`
	tag, err := r.pool.Exec(ctx, q, models.RecordingStatusPending, id)
	if err != nil {
		return fmt.Errorf("reset recording: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
