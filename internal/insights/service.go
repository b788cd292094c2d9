package insights

import (
	"context"
	"strconv"
	"strings"
)

// Predictor resolves demand forecasts.
type Predictor interface {
	Health(ctx context.Context) error
	Predictions(ctx context.Context, commune string, weeks int) ([]Prediction, error)
}

const defaultWeeks = 4

// Service serves demand forecasts through the cache.
type Service struct {
	predictor Predictor
	cache     *Cache
}

// NewService builds Service instance.
func NewService(predictor Predictor, cache *Cache) *Service {
	return &Service{predictor: predictor, cache: cache}
}

// Health proxies the prediction service health probe.
func (s *Service) Health(ctx context.Context) error {
	return s.predictor.Health(ctx)
}

// Predictions returns the cached forecast for a commune.
func (s *Service) Predictions(ctx context.Context, commune string, weeks int) ([]Prediction, error) {
	if weeks <= 0 {
		weeks = defaultWeeks
	}
	key := predictionKey(commune, weeks)
	var out []Prediction
	err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		return s.predictor.Predictions(ctx, commune, weeks)
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Prediction{}
	}
	return out, nil
}

// Warmup pre-populates the cache for the most requested forecasts. Used by
// the background worker.
func (s *Service) Warmup(ctx context.Context, communes []string) error {
	if _, err := s.Predictions(ctx, "", defaultWeeks); err != nil {
		return err
	}
	for _, commune := range communes {
		if _, err := s.Predictions(ctx, commune, defaultWeeks); err != nil {
			return err
		}
	}
	return nil
}

func predictionKey(commune string, weeks int) string {
	if commune == "" {
		commune = "all"
	}
	return strings.Join([]string{"insights", "predictions", strings.ToLower(commune), strconv.Itoa(weeks)}, ":")
}
