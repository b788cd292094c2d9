package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates a missing or expired bearer token.
	ErrInvalidToken = errors.New("invalid token")
)

// UserSafeMessage returns a message that can be shown to the caller.
// Internal detail stays in the server log.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "resource not found"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid email or password"
	case errors.Is(err, ErrInvalidToken):
		return "session expired, please sign in again"
	default:
		return "internal error, please try again later"
	}
}
