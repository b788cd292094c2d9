package users

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aguatrestorres/backoffice/internal/platform/httpx"
	"github.com/aguatrestorres/backoffice/internal/rbac"
	"github.com/aguatrestorres/backoffice/internal/shared"
)

// Handler manages user administration endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    rbac.Guard
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validate: validator.New()}
}

// MountRoutes registers user administration routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/users", h.list)
	r.Get("/users/{id}", h.get)
	r.Post("/users", h.create)
	r.Patch("/users/{id}", h.update)
	r.Post("/users/password", h.resetPassword)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Authorize(r.Context(), shared.PermUsersRead); err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": list})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Authorize(r.Context(), shared.PermUsersRead); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, "get user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Authorize(r.Context(), shared.PermUsersUpdate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req CreateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "email, name, role and password (min 8) are required")
		return
	}
	user, err := h.service.Create(r.Context(), actor.UserID, req)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "email already registered")
			return
		}
		h.respondServiceError(w, "create user", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Authorize(r.Context(), shared.PermUsersUpdate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid fields")
		return
	}
	user, err := h.service.Update(r.Context(), actor.UserID, chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondServiceError(w, "update user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Authorize(r.Context(), shared.PermUsersUpdate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req ResetPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "userId and password (min 8) are required")
		return
	}
	if err := h.service.ResetPassword(r.Context(), actor.UserID, req); err != nil {
		h.respondServiceError(w, "reset password", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "user not found")
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
