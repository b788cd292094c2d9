package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/aguatrestorres/backoffice/internal/insights"
	jobmetrics "github.com/aguatrestorres/backoffice/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// CommuneSource lists the communes worth pre-warming.
type CommuneSource interface {
	DistinctCommunes(ctx context.Context) ([]string, error)
}

// InsightsWarmupJob pre-populates the demand forecast cache so the morning
// dashboard does not wait on the prediction service.
type InsightsWarmupJob struct {
	Insights *insights.Service
	Communes CommuneSource
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewInsightsWarmupJob wires dependencies for the warmup handler.
func NewInsightsWarmupJob(svc *insights.Service, communes CommuneSource, logger *slog.Logger, metrics *jobmetrics.Metrics) *InsightsWarmupJob {
	return &InsightsWarmupJob{Insights: svc, Communes: communes, Logger: logger, Metrics: metrics}
}

// Handle processes forecast warmup tasks.
func (j *InsightsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Insights == nil {
		return errors.New("insights warmup: handler not configured")
	}
	var payload InsightsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskInsightsWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	start := time.Now()

	communes := payload.Communes
	if len(communes) == 0 && j.Communes != nil {
		list, err := j.Communes.DistinctCommunes(ctx)
		if err != nil {
			resultErr = err
			logger.Error("load communes", slog.Any("error", err))
			return resultErr
		}
		communes = list
	}

	if err := j.Insights.Warmup(ctx, communes); err != nil {
		resultErr = err
		logger.Error("warm forecast cache", slog.Any("error", err))
		return resultErr
	}

	logger.Info("completed insights warmup",
		slog.Int("communes", len(communes)),
		slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *InsightsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskInsightsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskInsightsWarmup))
}

func (j *InsightsWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
