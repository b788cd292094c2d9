package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aguatrestorres/backoffice/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	TouchLogin(ctx context.Context, userID string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, role, password_hash, is_active,
		       COALESCE(last_login_at, 'epoch'::timestamptz), COALESCE(login_count, 0),
		       created_at, updated_at
		FROM users WHERE lower(email) = lower($1)`, email).
		Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.PasswordHash, &user.IsActive,
			&user.LastLoginAt, &user.LoginCount, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("auth: find by email: %w", err)
	}
	return &user, nil
}

// TouchLogin updates the login bookkeeping columns after a successful login.
func (r *PGRepository) TouchLogin(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET last_login_at = NOW(), login_count = COALESCE(login_count, 0) + 1
		WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("auth: touch login: %w", err)
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
