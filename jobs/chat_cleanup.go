package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/aguatrestorres/backoffice/internal/jobs"
)

// TranscriptPurger removes chat transcripts older than a cutoff.
type TranscriptPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ChatCleanupJob purges assistant transcripts past the retention window.
type ChatCleanupJob struct {
	Transcripts TranscriptPurger
	Retention   time.Duration
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
	clock       func() time.Time
}

// NewChatCleanupJob wires dependencies for the cleanup handler.
func NewChatCleanupJob(transcripts TranscriptPurger, retention time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *ChatCleanupJob {
	return &ChatCleanupJob{
		Transcripts: transcripts,
		Retention:   retention,
		Logger:      logger,
		Metrics:     metrics,
		clock:       time.Now,
	}
}

// Handle processes transcript cleanup tasks.
func (j *ChatCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Transcripts == nil {
		return errors.New("chat cleanup: handler not configured")
	}
	if j.Retention <= 0 {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskChatCleanup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	cutoff := j.now().Add(-j.Retention)
	purged, err := j.Transcripts.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		resultErr = err
		j.logger().Error("purge transcripts", slog.Any("error", err))
		return resultErr
	}

	j.logger().Info("completed chat cleanup",
		slog.Int64("purged", purged),
		slog.Time("cutoff", cutoff))
	return resultErr
}

func (j *ChatCleanupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskChatCleanup))
	}
	return slog.Default().With(slog.String("job", TaskChatCleanup))
}

func (j *ChatCleanupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ChatCleanupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}
