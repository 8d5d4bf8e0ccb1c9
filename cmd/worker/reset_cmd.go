package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aura-webinar/recording-ingest/config"
	"github.com/aura-webinar/recording-ingest/internal/lessons"
	"github.com/aura-webinar/recording-ingest/internal/models"
	"github.com/aura-webinar/recording-ingest/pkg/database"
)

func newResetCmd() *cobra.Command {
	var lessonID string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Make a lesson eligible for ingestion again",
		Long:  "Set a lesson's recording state back to pending and clear its video references so the next run re-attempts it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(lessonID)
			if err != nil {
				return fmt.Errorf("invalid --lesson: %w", err)
			}
			logger := newLogger()
			defer logger.Sync()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			pool, err := database.NewPostgresPool(cmd.Context(), cfg.Database.DSN(), 2, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			return resetLesson(cmd.Context(), lessons.NewRepository(pool), id, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&lessonID, "lesson", "", "lesson id to reset")
	_ = cmd.MarkFlagRequired("lesson")
	return cmd
}

type lessonResetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lesson, error)
	ResetRecording(ctx context.Context, id uuid.UUID) error
}

// resetLesson confirms the lesson exists, reports its current recording state
// and puts it back into the needs-work set.
func resetLesson(ctx context.Context, store lessonResetter, id uuid.UUID, out io.Writer) error {
	l, err := store.GetByID(ctx, id)
	if errors.Is(err, lessons.ErrNotFound) {
		return fmt.Errorf("lesson %s not found", id)
	}
	if err != nil {
		return err
	}
	if l.Kind != models.LessonKindLiveClass {
		return fmt.Errorf("lesson %s is a %q lesson, not a live class", id, l.Kind)
	}
	if err := store.ResetRecording(ctx, id); err != nil {
		return err
	}
	prev := l.RecordingStatus
	if prev == models.RecordingStatusAbsent {
		prev = "none"
	}
	fmt.Fprintf(out, "lesson %s reset to pending (was %s", id, prev)
	if l.VideoObjectID != "" {
		fmt.Fprintf(out, ", video %s", l.VideoObjectID)
	}
	fmt.Fprintln(out, ")")
	return nil
}
