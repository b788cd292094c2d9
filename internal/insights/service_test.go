package insights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakePredictor struct {
	predictions []Prediction
	err         error
	calls       int
	lastCommune string
	lastWeeks   int
}

func (f *fakePredictor) Health(context.Context) error { return f.err }

func (f *fakePredictor) Predictions(_ context.Context, commune string, weeks int) ([]Prediction, error) {
	f.calls++
	f.lastCommune = commune
	f.lastWeeks = weeks
	return f.predictions, f.err
}

func TestPredictionsDefaultsWeeks(t *testing.T) {
	predictor := &fakePredictor{predictions: []Prediction{{Commune: "Maipú", Week: "1", PredictedOrders: 42}}}
	svc := NewService(predictor, nil)

	out, err := svc.Predictions(context.Background(), "Maipú", 0)
	if err != nil {
		t.Fatalf("Predictions: %v", err)
	}
	if predictor.lastWeeks != 4 {
		t.Fatalf("weeks = %d, want default 4", predictor.lastWeeks)
	}
	if len(out) != 1 || out[0].PredictedOrders != 42 {
		t.Fatalf("out = %+v", out)
	}
}

func TestPredictionsNeverReturnsNil(t *testing.T) {
	svc := NewService(&fakePredictor{}, nil)

	out, err := svc.Predictions(context.Background(), "", 2)
	if err != nil {
		t.Fatalf("Predictions: %v", err)
	}
	if out == nil {
		t.Fatal("expected empty slice, got nil")
	}
}

func TestPredictionsServedFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	predictor := &fakePredictor{predictions: []Prediction{{Commune: "Pudahuel", Week: "1", PredictedLiters: 800}}}
	svc := NewService(predictor, NewCache(client, time.Minute))

	for i := 0; i < 3; i++ {
		out, err := svc.Predictions(context.Background(), "Pudahuel", 4)
		if err != nil {
			t.Fatalf("Predictions %d: %v", i, err)
		}
		if len(out) != 1 || out[0].PredictedLiters != 800 {
			t.Fatalf("out = %+v", out)
		}
	}
	if predictor.calls != 1 {
		t.Fatalf("predictor calls = %d, want 1 with warm cache", predictor.calls)
	}
	if !mr.Exists("insights:predictions:pudahuel:4") {
		t.Fatal("expected cache key insights:predictions:pudahuel:4")
	}
}

func TestPredictionsPropagatesUnavailability(t *testing.T) {
	svc := NewService(&fakePredictor{err: ErrUnavailable}, nil)

	if _, err := svc.Predictions(context.Background(), "Maipú", 4); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestWarmupPrimesAllAndPerCommune(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	predictor := &fakePredictor{predictions: []Prediction{}}
	svc := NewService(predictor, NewCache(client, time.Minute))

	if err := svc.Warmup(context.Background(), []string{"Maipú", "Pudahuel"}); err != nil {
		t.Fatalf("Warmup: %v", err)
	}
	for _, key := range []string{
		"insights:predictions:all:4",
		"insights:predictions:maipú:4",
		"insights:predictions:pudahuel:4",
	} {
		if !mr.Exists(key) {
			t.Fatalf("missing cache key %s", key)
		}
	}
}
