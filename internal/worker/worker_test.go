package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/recording-ingest/internal/lessons"
	"github.com/aura-webinar/recording-ingest/internal/models"
	"github.com/aura-webinar/recording-ingest/pkg/queue"
)

type statusStore struct {
	mu      sync.Mutex
	known   map[string]string
	failNow int
}

func (s *statusStore) UpdateRecordingStatus(_ context.Context, videoObjectID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNow > 0 {
		s.failNow--
		return errors.New("db unavailable")
	}
	if _, ok := s.known[videoObjectID]; !ok {
		return lessons.ErrNotFound
	}
	s.known[videoObjectID] = status
	return nil
}

func (s *statusStore) link(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.known[id] = models.RecordingStatusProcessing
}

func (s *statusStore) get(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.known[id]
}

func newQueue(t *testing.T) *queue.Queue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return queue.NewQueue(client, nil)
}

func TestTargetStatus(t *testing.T) {
	tests := []struct {
		code   int
		want   string
		wantOK bool
	}{
		{0, "", false},
		{1, "", false},
		{2, "", false},
		{3, models.RecordingStatusProcessed, true},
		{4, models.RecordingStatusProcessed, true},
		{5, models.RecordingStatusFailed, true},
		{6, "", false},
	}
	for _, tt := range tests {
		got, ok := TargetStatus(tt.code)
		assert.Equal(t, tt.wantOK, ok, "code %d", tt.code)
		assert.Equal(t, tt.want, got, "code %d", tt.code)
	}
}

func TestStatusProcessor_Process(t *testing.T) {
	q := newQueue(t)
	store := &statusStore{known: map[string]string{"guid-1": models.RecordingStatusProcessing}}
	p := NewStatusProcessor(store, q, nil)
	ctx := context.Background()

	for _, ev := range []queue.VideoStatusPayload{
		{VideoGUID: "guid-1", Status: 2},
		{VideoGUID: "guid-unknown", Status: 1},
		{VideoGUID: "guid-1", Status: 3},
	} {
		require.NoError(t, q.EnqueueVideoStatus(ctx, ev))
		job, err := q.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		require.NoError(t, p.Process(ctx, job))
	}
	assert.Equal(t, models.RecordingStatusProcessed, store.get("guid-1"))
}

func TestStatusProcessor_RejectsUnknownJobType(t *testing.T) {
	p := NewStatusProcessor(&statusStore{}, newQueue(t), nil)
	err := p.Process(context.Background(), &queue.Job{Type: "email"})
	require.Error(t, err)
}

func TestStatusProcessor_RunRetriesTransientFailure(t *testing.T) {
	q := newQueue(t)
	store := &statusStore{known: map[string]string{"guid-9": models.RecordingStatusProcessing}, failNow: 1}
	p := NewStatusProcessor(store, q, nil)
	p.pollTimeout = 50 * time.Millisecond
	p.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, q.EnqueueVideoStatus(ctx, queue.VideoStatusPayload{VideoGUID: "guid-9", Status: 5}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	assert.Eventually(t, func() bool {
		return store.get("guid-9") == models.RecordingStatusFailed
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestStatusProcessor_StatusBeforeLessonLinked(t *testing.T) {
	q := newQueue(t)
	store := &statusStore{known: map[string]string{}}
	p := NewStatusProcessor(store, q, nil)
	ctx := context.Background()

	require.NoError(t, q.EnqueueVideoStatus(ctx, queue.VideoStatusPayload{VideoGUID: "guid-fast", Status: VideoStatusFailed}))
	job, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)

	err = p.Process(ctx, job)
	require.ErrorIs(t, err, ErrVideoNotLinked)
	require.NoError(t, q.Retry(ctx, job))

	store.link("guid-fast")
	job, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	require.NoError(t, p.Process(ctx, job))
	assert.Equal(t, models.RecordingStatusFailed, store.get("guid-fast"))
}

func TestStatusProcessor_NeverLinkedGoesToDLQ(t *testing.T) {
	q := newQueue(t)
	p := NewStatusProcessor(&statusStore{known: map[string]string{}}, q, nil)
	p.pollTimeout = 50 * time.Millisecond
	p.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, q.EnqueueVideoStatus(ctx, queue.VideoStatusPayload{VideoGUID: "guid-orphan", Status: VideoStatusFinished}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	assert.Eventually(t, func() bool {
		n, err := q.DeadLetters(context.Background())
		return err == nil && n == 1
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("worker did not stop")
	}
}
