package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/aura-webinar/recording-ingest/internal/models"
)

// Selector finds live-class lessons whose recording still needs to be ingested.
//
// The lesson store is queried by kind only and the time window and status are
// checked here: the store cannot do a range plus equality lookup across courses
// efficiently, and the filtered volume is small.
type Selector struct {
	store  LessonStore
	margin time.Duration
}

// NewSelector creates a selector. margin is the grace period after a class's
// scheduled end before it is considered over.
func NewSelector(store LessonStore, margin time.Duration) *Selector {
	return &Selector{store: store, margin: margin}
}

// Select returns the current candidates. Order is unspecified.
func (s *Selector) Select(ctx context.Context, now time.Time, lookback time.Duration) ([]models.Lesson, error) {
	all, err := s.store.ListByKind(ctx, models.LessonKindLiveClass)
	if err != nil {
		return nil, fmt.Errorf("list live classes: %w", err)
	}
	var out []models.Lesson
	for _, l := range all {
		if IsCandidate(l, now, lookback, s.margin) {
			out = append(out, l)
		}
	}
	return out, nil
}

// IsCandidate applies the candidate predicate: a live class with a session id,
// started within (now-lookback, now), over (end plus margin not after now),
// and with a recording status in the needs-work set.
func IsCandidate(l models.Lesson, now time.Time, lookback, margin time.Duration) bool {
	if l.Kind != models.LessonKindLiveClass || l.ConferenceSessionID == "" {
		return false
	}
	if !l.StartTime.After(now.Add(-lookback)) || !l.StartTime.Before(now) {
		return false
	}
	if l.EndTime().Add(margin).After(now) {
		return false
	}
	return l.NeedsRecording()
}
