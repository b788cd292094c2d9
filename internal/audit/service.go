package audit

import (
	"context"
	"fmt"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// ActivityStore is the query side of the audit trail.
type ActivityStore interface {
	Activity(ctx context.Context, f Filters) (Result, error)
	ActivityAll(ctx context.Context, f Filters) ([]Entry, error)
}

// Service answers activity-log queries with paging.
type Service struct {
	store ActivityStore
}

// NewService constructs a Service.
func NewService(store ActivityStore) *Service {
	return &Service{store: store}
}

// Activity returns one actor's entries in reverse chronological order.
func (s *Service) Activity(ctx context.Context, f Filters) (Result, error) {
	if s.store == nil {
		return Result{}, fmt.Errorf("audit: store not configured")
	}
	if f.ActorID == "" {
		return Result{}, fmt.Errorf("audit: actor id required")
	}
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return Result{}, fmt.Errorf("audit: end date before start date")
	}
	return s.store.Activity(ctx, f)
}

// Export returns every matching entry without paging.
func (s *Service) Export(ctx context.Context, f Filters) ([]Entry, error) {
	if s.store == nil {
		return nil, fmt.Errorf("audit: store not configured")
	}
	if f.ActorID == "" {
		return nil, fmt.Errorf("audit: actor id required")
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, fmt.Errorf("audit: end date before start date")
	}
	return s.store.ActivityAll(ctx, f)
}
