package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aguatrestorres/backoffice/internal/platform/httpx"
	"github.com/aguatrestorres/backoffice/internal/shared"
)

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// Middleware verifies the bearer credential on every request and attaches
// the identity to the context. Requests without a valid token get 401.
func Middleware(verifier Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			identity, err := verifier.Verify(r.Context(), token)
			if err != nil {
				if !errors.Is(err, shared.ErrInvalidToken) && logger != nil {
					logger.Error("verify token", slog.Any("error", err))
				}
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			ctx := shared.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
