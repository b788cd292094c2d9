package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, name, role, is_active,
	COALESCE(last_login_at, 'epoch'::timestamptz), COALESCE(login_count, 0),
	created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.IsActive, &u.LastLoginAt, &u.LoginCount, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// List returns all users ordered by name.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("users: scan: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Get fetches one user by id.
func (r *Repository) Get(ctx context.Context, id string) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("users: get: %w", err)
	}
	return u, nil
}

// EmailExists reports whether the email is already registered.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1))`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("users: email exists: %w", err)
	}
	return exists, nil
}

// Create inserts a new account and returns it.
func (r *Repository) Create(ctx context.Context, email, name, role, passwordHash string) (User, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, name, role, password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())`,
		id, email, name, role, passwordHash)
	if err != nil {
		return User{}, fmt.Errorf("users: create: %w", err)
	}
	return r.Get(ctx, id)
}

// Update applies a partial update and returns the new state.
func (r *Repository) Update(ctx context.Context, id string, name, role *string, isActive *bool) (User, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET
			name = COALESCE($2, name),
			role = COALESCE($3, role),
			is_active = COALESCE($4, is_active),
			updated_at = NOW()
		WHERE id = $1`, id, name, role, isActive)
	if err != nil {
		return User{}, fmt.Errorf("users: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return User{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

// SetPasswordHash replaces the stored password hash.
func (r *Repository) SetPasswordHash(ctx context.Context, id, hash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("users: set password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
