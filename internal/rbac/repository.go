package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines the persistence the service needs.
type Repository interface {
	GetUserRole(ctx context.Context, userID string) (Role, error)
	RolePermissions(ctx context.Context, role Role) ([]string, error)
	UserOverrides(ctx context.Context, userID string) ([]Override, error)
	GetOverride(ctx context.Context, userID, permissionID string) (*Override, error)
	UpsertOverride(ctx context.Context, o Override) error
	DeleteOverride(ctx context.Context, userID, permissionID string) (bool, error)
}

// PGRepository implements Repository against PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// GetUserRole fetches the role of a user.
func (r *PGRepository) GetUserRole(ctx context.Context, userID string) (Role, error) {
	var role string
	err := r.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("rbac: get user role: %w", err)
	}
	return Role(role), nil
}

// RolePermissions returns the seeded defaults for a role.
func (r *PGRepository) RolePermissions(ctx context.Context, role Role) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT permission_id FROM role_permissions WHERE role = $1 ORDER BY permission_id`, string(role))
	if err != nil {
		return nil, fmt.Errorf("rbac: role permissions: %w", err)
	}
	defer rows.Close()
	var perms []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("rbac: scan role permission: %w", err)
		}
		perms = append(perms, id)
	}
	return perms, rows.Err()
}

// UserOverrides returns every override for a user.
func (r *PGRepository) UserOverrides(ctx context.Context, userID string) ([]Override, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, permission_id, granted, COALESCE(created_by, ''), created_at
		FROM user_permissions WHERE user_id = $1 ORDER BY permission_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: user overrides: %w", err)
	}
	defer rows.Close()
	var overrides []Override
	for rows.Next() {
		var o Override
		if err := rows.Scan(&o.UserID, &o.PermissionID, &o.Granted, &o.CreatedBy, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("rbac: scan override: %w", err)
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// GetOverride fetches one override, or nil if none exists.
func (r *PGRepository) GetOverride(ctx context.Context, userID, permissionID string) (*Override, error) {
	var o Override
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, permission_id, granted, COALESCE(created_by, ''), created_at
		FROM user_permissions WHERE user_id = $1 AND permission_id = $2`, userID, permissionID).
		Scan(&o.UserID, &o.PermissionID, &o.Granted, &o.CreatedBy, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("rbac: get override: %w", err)
	}
	return &o, nil
}

// UpsertOverride writes an override keyed on (user_id, permission_id).
// A uniqueness constraint on the pair makes the write last-write-wins.
func (r *PGRepository) UpsertOverride(ctx context.Context, o Override) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_permissions (user_id, permission_id, granted, created_by, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NOW())
		ON CONFLICT (user_id, permission_id)
		DO UPDATE SET granted = EXCLUDED.granted, created_by = EXCLUDED.created_by, created_at = NOW()`,
		o.UserID, o.PermissionID, o.Granted, o.CreatedBy)
	if err != nil {
		return fmt.Errorf("rbac: upsert override: %w", err)
	}
	return nil
}

// DeleteOverride removes an override. Returns false when nothing existed.
func (r *PGRepository) DeleteOverride(ctx context.Context, userID, permissionID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_permissions WHERE user_id = $1 AND permission_id = $2`, userID, permissionID)
	if err != nil {
		return false, fmt.Errorf("rbac: delete override: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

var _ Repository = (*PGRepository)(nil)
