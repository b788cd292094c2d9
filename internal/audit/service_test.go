package audit

import (
	"context"
	"strings"
	"testing"
	"time"
)

type stubActivityStore struct {
	lastFilters Filters
	result      Result
	all         []Entry
	err         error
}

func (s *stubActivityStore) Activity(_ context.Context, f Filters) (Result, error) {
	s.lastFilters = f
	return s.result, s.err
}

func (s *stubActivityStore) ActivityAll(_ context.Context, f Filters) ([]Entry, error) {
	s.lastFilters = f
	return s.all, s.err
}

func TestActivityRequiresActor(t *testing.T) {
	svc := NewService(&stubActivityStore{})

	_, err := svc.Activity(context.Background(), Filters{})
	if err == nil || !strings.Contains(err.Error(), "actor id required") {
		t.Fatalf("err = %v, want actor id required", err)
	}
}

func TestActivityAppliesPagingDefaults(t *testing.T) {
	store := &stubActivityStore{}
	svc := NewService(store)

	if _, err := svc.Activity(context.Background(), Filters{ActorID: "u1", Offset: -3}); err != nil {
		t.Fatalf("Activity: %v", err)
	}
	if store.lastFilters.Limit != 50 {
		t.Fatalf("limit = %d, want default 50", store.lastFilters.Limit)
	}
	if store.lastFilters.Offset != 0 {
		t.Fatalf("offset = %d, want 0", store.lastFilters.Offset)
	}
}

func TestActivityCapsLimit(t *testing.T) {
	store := &stubActivityStore{}
	svc := NewService(store)

	if _, err := svc.Activity(context.Background(), Filters{ActorID: "u1", Limit: 5000}); err != nil {
		t.Fatalf("Activity: %v", err)
	}
	if store.lastFilters.Limit != 200 {
		t.Fatalf("limit = %d, want cap 200", store.lastFilters.Limit)
	}
}

func TestActivityRejectsInvertedDateRange(t *testing.T) {
	svc := NewService(&stubActivityStore{})

	from := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	_, err := svc.Activity(context.Background(), Filters{ActorID: "u1", From: from, To: from.AddDate(0, 0, -1)})
	if err == nil {
		t.Fatal("expected error for end date before start date")
	}
}

func TestActivityReturnsStoreResult(t *testing.T) {
	store := &stubActivityStore{result: Result{
		Entries: []Entry{{ID: "e1", Action: ActionOrderCreated}},
		Total:   45,
	}}
	svc := NewService(store)

	res, err := svc.Activity(context.Background(), Filters{ActorID: "u1", Limit: 20, Offset: 20})
	if err != nil {
		t.Fatalf("Activity: %v", err)
	}
	if res.Total != 45 || len(res.Entries) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if store.lastFilters.Limit != 20 || store.lastFilters.Offset != 20 {
		t.Fatalf("filters = %+v", store.lastFilters)
	}
}

func TestExportRequiresActor(t *testing.T) {
	svc := NewService(&stubActivityStore{})

	_, err := svc.Export(context.Background(), Filters{})
	if err == nil || !strings.Contains(err.Error(), "actor id required") {
		t.Fatalf("err = %v, want actor id required", err)
	}
}

func TestExportIgnoresPagingCaps(t *testing.T) {
	all := make([]Entry, 450)
	for i := range all {
		all[i] = Entry{ID: "e" + string(rune('a'+i%26)), Action: ActionOrderCreated}
	}
	store := &stubActivityStore{all: all}
	svc := NewService(store)

	entries, err := svc.Export(context.Background(), Filters{ActorID: "u1", Limit: 20, Offset: 400})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(entries) != 450 {
		t.Fatalf("entries = %d, want every matching row (450)", len(entries))
	}
}
