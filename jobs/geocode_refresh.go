package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/aguatrestorres/backoffice/internal/customers"
	jobmetrics "github.com/aguatrestorres/backoffice/internal/jobs"
	"github.com/aguatrestorres/backoffice/internal/routing"
)

const (
	defaultGeocodeBatch   = 50
	geocodeConcurrency    = 4
	geocodeRequestTimeout = 10 * time.Second
)

// Geocoder resolves a street address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (routing.LatLng, error)
}

// AddressStore is the address side the refresh task needs.
type AddressStore interface {
	AddressesMissingCoordinates(ctx context.Context, limit int) ([]customers.Address, error)
	SetAddressCoordinates(ctx context.Context, addressID string, lat, lng float64) error
}

// GeocodeRefreshJob resolves coordinates for delivery addresses that never
// got geocoded, so their orders can join optimized routes.
type GeocodeRefreshJob struct {
	Geocoder  Geocoder
	Addresses AddressStore
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewGeocodeRefreshJob wires dependencies for the refresh handler.
func NewGeocodeRefreshJob(geocoder Geocoder, addresses AddressStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *GeocodeRefreshJob {
	return &GeocodeRefreshJob{Geocoder: geocoder, Addresses: addresses, Logger: logger, Metrics: metrics}
}

// Handle processes geocode refresh tasks.
func (j *GeocodeRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Geocoder == nil || j.Addresses == nil {
		return errors.New("geocode refresh: handler not configured")
	}
	var payload GeocodeRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.BatchSize <= 0 {
		payload.BatchSize = defaultGeocodeBatch
	}

	tracker := j.metrics().Track(TaskGeocodeRefresh)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	pending, err := j.Addresses.AddressesMissingCoordinates(ctx, payload.BatchSize)
	if err != nil {
		resultErr = err
		logger.Error("load pending addresses", slog.Any("error", err))
		return resultErr
	}
	if len(pending) == 0 {
		logger.Info("no addresses to geocode")
		return resultErr
	}

	var resolved, skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(geocodeConcurrency)
	for _, addr := range pending {
		g.Go(func() error {
			reqCtx, cancel := context.WithTimeout(gctx, geocodeRequestTimeout)
			defer cancel()

			query := addr.RawAddress
			if addr.Commune != "" && !strings.Contains(strings.ToLower(query), strings.ToLower(addr.Commune)) {
				query += ", " + addr.Commune
			}
			point, err := j.Geocoder.Geocode(reqCtx, query)
			if err != nil {
				if errors.Is(err, routing.ErrNoGeocodeResult) {
					// Unresolvable addresses stay pending for manual fixup.
					skipped.Add(1)
					return nil
				}
				return err
			}
			if err := j.Addresses.SetAddressCoordinates(gctx, addr.ID, point.Lat, point.Lng); err != nil {
				return err
			}
			resolved.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		resultErr = err
		logger.Error("geocode batch", slog.Any("error", err))
		return resultErr
	}

	logger.Info("completed geocode refresh",
		slog.Int64("resolved", resolved.Load()),
		slog.Int64("skipped", skipped.Load()),
		slog.Int("batch", len(pending)))
	return resultErr
}

func (j *GeocodeRefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskGeocodeRefresh))
	}
	return slog.Default().With(slog.String("job", TaskGeocodeRefresh))
}

func (j *GeocodeRefreshJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
