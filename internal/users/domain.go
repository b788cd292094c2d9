package users

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the user does not exist.
	ErrNotFound = errors.New("users: not found")
	// ErrEmailTaken indicates another account already uses the email.
	ErrEmailTaken = errors.New("users: email already registered")
)

// User represents a back-office account under administration.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
	LastLoginAt time.Time `json:"last_login_at,omitempty"`
	LoginCount  int       `json:"login_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
