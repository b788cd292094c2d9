package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for saved routes.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const routeColumns = `route_id, route_name, route_date, stops,
	COALESCE(distance_meters, 0), COALESCE(duration_seconds, 0), COALESCE(polyline, ''),
	COALESCE(created_by, ''), created_at`

func scanRoute(row pgx.Row) (SavedRoute, error) {
	var route SavedRoute
	var stops []byte
	err := row.Scan(&route.ID, &route.Name, &route.RouteDate, &stops,
		&route.DistanceMeters, &route.DurationSeconds, &route.Polyline,
		&route.CreatedBy, &route.CreatedAt)
	if err != nil {
		return SavedRoute{}, err
	}
	if len(stops) > 0 {
		if err := json.Unmarshal(stops, &route.Stops); err != nil {
			return SavedRoute{}, fmt.Errorf("routing: decode stops: %w", err)
		}
	}
	return route, nil
}

// List returns all saved routes, newest first.
func (r *Repository) List(ctx context.Context) ([]SavedRoute, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+routeColumns+" FROM saved_routes ORDER BY route_date DESC, created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("routing: list: %w", err)
	}
	defer rows.Close()
	var out []SavedRoute
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("routing: scan: %w", err)
		}
		out = append(out, route)
	}
	return out, rows.Err()
}

// Get fetches one saved route.
func (r *Repository) Get(ctx context.Context, id string) (SavedRoute, error) {
	route, err := scanRoute(r.pool.QueryRow(ctx, "SELECT "+routeColumns+" FROM saved_routes WHERE route_id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SavedRoute{}, ErrNotFound
		}
		return SavedRoute{}, fmt.Errorf("routing: get: %w", err)
	}
	return route, nil
}

// Save inserts a route plan.
func (r *Repository) Save(ctx context.Context, route SavedRoute) (SavedRoute, error) {
	if route.ID == "" {
		route.ID = uuid.NewString()
	}
	stops, err := json.Marshal(route.Stops)
	if err != nil {
		return SavedRoute{}, fmt.Errorf("routing: encode stops: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO saved_routes (route_id, route_name, route_date, stops,
			distance_meters, duration_seconds, polyline, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
		route.ID, route.Name, route.RouteDate, stops,
		route.DistanceMeters, route.DurationSeconds, route.Polyline, route.CreatedBy)
	if err != nil {
		return SavedRoute{}, fmt.Errorf("routing: save: %w", err)
	}
	return r.Get(ctx, route.ID)
}

// Delete removes a route plan.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM saved_routes WHERE route_id = $1`, id)
	if err != nil {
		return fmt.Errorf("routing: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
