package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for the audit trail.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends one entry. The table has no UPDATE or DELETE path.
func (r *Repository) Insert(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	oldJSON, err := marshalSnapshot(e.OldValue)
	if err != nil {
		return fmt.Errorf("audit: marshal old value: %w", err)
	}
	newJSON, err := marshalSnapshot(e.NewValue)
	if err != nil {
		return fmt.Errorf("audit: marshal new value: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO audit_log (id, actor_id, action, entity_type, entity_id, old_value, new_value, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), COALESCE($10, NOW()))`,
		e.ID, e.ActorID, e.Action, e.EntityType, e.EntityID, oldJSON, newJSON, e.IPAddress, e.UserAgent, nullableTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("audit: insert entry: %w", err)
	}
	return nil
}

// Activity returns entries for one actor, most recent first, plus the exact
// total matching the filters.
func (r *Repository) Activity(ctx context.Context, f Filters) (Result, error) {
	where := `WHERE actor_id = $1
		AND ($2::timestamptz IS NULL OR created_at >= $2)
		AND ($3::timestamptz IS NULL OR created_at <= $3)`
	args := []any{f.ActorID, nullableTime(f.From), nullableTime(f.To)}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_log `+where, args...).Scan(&total); err != nil {
		return Result{}, fmt.Errorf("audit: count activity: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, actor_id, action, entity_type, entity_id, old_value, new_value,
		       COALESCE(ip_address, ''), COALESCE(user_agent, ''), created_at
		FROM audit_log `+where+`
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return Result{}, fmt.Errorf("audit: query activity: %w", err)
	}
	defer rows.Close()

	entries, err := collectEntries(rows, f.Limit)
	if err != nil {
		return Result{}, err
	}
	return Result{Entries: entries, Total: total}, nil
}

// ActivityAll returns every entry matching the filters without paging. Feeds
// the CSV export, which must cover the whole range.
func (r *Repository) ActivityAll(ctx context.Context, f Filters) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, actor_id, action, entity_type, entity_id, old_value, new_value,
		       COALESCE(ip_address, ''), COALESCE(user_agent, ''), created_at
		FROM audit_log
		WHERE actor_id = $1
		AND ($2::timestamptz IS NULL OR created_at >= $2)
		AND ($3::timestamptz IS NULL OR created_at <= $3)
		ORDER BY created_at DESC`,
		f.ActorID, nullableTime(f.From), nullableTime(f.To))
	if err != nil {
		return nil, fmt.Errorf("audit: query activity export: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows, 0)
}

func collectEntries(rows pgx.Rows, sizeHint int) ([]Entry, error) {
	entries := make([]Entry, 0, sizeHint)
	for rows.Next() {
		var e Entry
		var oldJSON, newJSON []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &oldJSON, &newJSON, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan entry: %w", err)
		}
		if err := unmarshalSnapshot(oldJSON, &e.OldValue); err != nil {
			return nil, err
		}
		if err := unmarshalSnapshot(newJSON, &e.NewValue); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func marshalSnapshot(m map[string]any) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func unmarshalSnapshot(data []byte, target *map[string]any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("audit: unmarshal snapshot: %w", err)
	}
	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
