package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/aura-webinar/recording-ingest/internal/conferencing"
	"github.com/aura-webinar/recording-ingest/internal/models"
)

type memStore struct {
	mu        sync.Mutex
	lessons   map[uuid.UUID]models.Lesson
	failMark  error
	hangWrite bool // MarkProcessing waits for its context to end
}

func newMemStore(lessons ...models.Lesson) *memStore {
	s := &memStore{lessons: make(map[uuid.UUID]models.Lesson)}
	for _, l := range lessons {
		s.lessons[l.ID] = l
	}
	return s
}

func (s *memStore) ListByKind(_ context.Context, kind string) ([]models.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Lesson
	for _, l := range s.lessons {
		if l.Kind == kind {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *memStore) MarkProcessing(ctx context.Context, id uuid.UUID, videoObjectID, sourceRecordingID string) error {
	if s.hangWrite {
		<-ctx.Done()
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failMark != nil {
		return s.failMark
	}
	l, ok := s.lessons[id]
	if !ok {
		return errors.New("lesson not found")
	}
	l.RecordingStatus = models.RecordingStatusProcessing
	l.VideoObjectID = videoObjectID
	l.SourceRecordingID = sourceRecordingID
	s.lessons[id] = l
	return nil
}

func (s *memStore) get(id uuid.UUID) models.Lesson {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lessons[id]
}

type fakeVideo struct {
	creates    atomic.Int32
	fetches    atomic.Int32
	failCreate error
	failFetch  error
}

func (v *fakeVideo) CreateVideo(_ context.Context, _, _, _ string) (string, error) {
	if v.failCreate != nil {
		return "", v.failCreate
	}
	n := v.creates.Add(1)
	return fmt.Sprintf("vid-%d", n), nil
}

func (v *fakeVideo) FetchVideo(_ context.Context, _, _, _, _ string) error {
	v.fetches.Add(1)
	return v.failFetch
}

type fakeLocator struct {
	calls atomic.Int32
	fn    func(sessionID string) (*models.RecordingAsset, error)
}

func (l *fakeLocator) Locate(_ context.Context, _ string, sessionID string) (*models.RecordingAsset, error) {
	l.calls.Add(1)
	if l.fn != nil {
		return l.fn(sessionID)
	}
	return mp4Asset(sessionID), nil
}

func mp4Asset(sessionID string) *models.RecordingAsset {
	return &models.RecordingAsset{
		ID:            "rec-" + sessionID,
		FileType:      conferencing.FileTypePrimaryVideo,
		FileSizeBytes: 1_000_000,
		DownloadURL:   "https://zoom.example/rec/download/" + sessionID,
		SessionID:     sessionID,
	}
}

type fakeResolver struct {
	creds *models.Credentials
	err   error
	calls atomic.Int32
}

func (r *fakeResolver) Resolve(context.Context) (*models.Credentials, error) {
	r.calls.Add(1)
	return r.creds, r.err
}

type fakeTokens struct {
	token string
	err   error
	hang  bool // Exchange waits for its context to end
	calls atomic.Int32
}

func (t *fakeTokens) Exchange(ctx context.Context, _ *models.Credentials) (string, error) {
	t.calls.Add(1)
	if t.hang {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return t.token, t.err
}

type memReports struct {
	mu      sync.Mutex
	reports []*models.RunReport
}

func (m *memReports) Save(_ context.Context, r *models.RunReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
	return nil
}

func testCreds() *models.Credentials {
	return &models.Credentials{
		VideoLibraryID:           "lib-1",
		VideoAPIKey:              "bunny-key",
		ConferencingAccountID:    "acct",
		ConferencingClientID:     "client",
		ConferencingClientSecret: "secret",
	}
}

func liveClass(sessionID string, start time.Time, status string) models.Lesson {
	return models.Lesson{
		ID:                  uuid.New(),
		CourseID:            uuid.New(),
		Title:               "Live " + sessionID,
		Kind:                models.LessonKindLiveClass,
		StartTime:           start,
		DurationMinutes:     60,
		ConferenceSessionID: sessionID,
		RecordingStatus:     status,
	}
}
