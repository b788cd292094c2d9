package auth

import "time"

// User represents an authenticated user account.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         string
	PasswordHash string
	IsActive     bool
	LastLoginAt  time.Time
	LoginCount   int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
