package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/aguatrestorres/backoffice/internal/platform/httpx"
	"github.com/aguatrestorres/backoffice/internal/shared"
)

// Brute-force protection on login, per client IP.
const (
	loginRateLimit  = 5
	loginRateWindow = 15 * time.Minute
)

// Handler manages login, logout and the current-identity endpoint.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountPublicRoutes registers routes reachable without a bearer token.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(loginRateLimit, loginRateWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				httpx.RespondError(w, httpx.ErrRateLimited)
			}),
		))
		r.Post("/auth/login", h.login)
	})
}

// MountRoutes registers routes behind the auth middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/auth/logout", h.logout)
	r.Get("/auth/me", h.me)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string          `json:"token"`
	User  shared.Identity `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "email and password are required")
		return
	}

	token, identity, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", shared.UserSafeMessage(err))
			return
		}
		h.logger.Error("login", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, loginResponse{Token: token, User: *identity})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), BearerToken(r)); err != nil {
		h.logger.Error("logout", slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	identity := shared.IdentityFromContext(r.Context())
	if identity == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, identity)
}
