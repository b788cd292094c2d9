package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
)

type stubPurger struct {
	purged     int64
	err        error
	lastCutoff time.Time
}

func (s *stubPurger) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.lastCutoff = cutoff
	return s.purged, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChatCleanupPurgesPastRetention(t *testing.T) {
	purger := &stubPurger{purged: 12}
	job := NewChatCleanupJob(purger, 90*24*time.Hour, testLogger(), nil)
	at := time.Date(2026, 8, 20, 3, 0, 0, 0, time.UTC)
	job.clock = func() time.Time { return at }

	task, err := NewChatCleanupTask()
	if err != nil {
		t.Fatalf("NewChatCleanupTask: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	wantCutoff := at.Add(-90 * 24 * time.Hour)
	if !purger.lastCutoff.Equal(wantCutoff) {
		t.Fatalf("cutoff = %v, want %v", purger.lastCutoff, wantCutoff)
	}
}

func TestChatCleanupSkipsWhenRetentionDisabled(t *testing.T) {
	job := NewChatCleanupJob(&stubPurger{}, 0, testLogger(), nil)

	task, _ := NewChatCleanupTask()
	if err := job.Handle(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("err = %v, want SkipRetry", err)
	}
}

func TestChatCleanupPropagatesStoreFailure(t *testing.T) {
	boom := errors.New("pg down")
	job := NewChatCleanupJob(&stubPurger{err: boom}, time.Hour, testLogger(), nil)

	task, _ := NewChatCleanupTask()
	if err := job.Handle(context.Background(), task); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
