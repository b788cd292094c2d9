package audit

import (
	"context"
	"errors"
	"log/slog"
)

// Store is the persistence needed by the recorder.
type Store interface {
	Insert(ctx context.Context, e Entry) error
}

// Recorder writes audit entries after privileged mutations. A failed write
// is reported to the log and swallowed: audit is best-effort and must never
// unwind an already-committed business mutation.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

// NewRecorder constructs a Recorder.
func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger}
}

// Record persists the entry. It never returns an error to the caller.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if r == nil || r.store == nil {
		return
	}
	if e.ActorID == "" || e.Action == "" || e.EntityType == "" {
		r.logger.Error("audit entry missing actor/action/entity", slog.String("action", e.Action))
		return
	}
	if err := r.store.Insert(ctx, e); err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Error("audit write failed",
			slog.String("action", e.Action),
			slog.String("entity_type", e.EntityType),
			slog.String("entity_id", e.EntityID),
			slog.Any("error", err),
		)
	}
}
