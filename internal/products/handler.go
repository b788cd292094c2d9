package products

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

// Handler manages product catalog endpoints.
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

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.list)
	r.Get("/products/{id}", h.get)
	r.Post("/products", h.create)
	r.Patch("/products/{id}", h.update)
	r.Delete("/products/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Authorize(r.Context(), shared.PermProductsRead); err != nil {
		httpx.RespondError(w, err)
		return
	}
	activeOnly := r.URL.Query().Get("include_inactive") != "true"
	list, err := h.service.List(r.Context(), r.URL.Query().Get("category"), activeOnly)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": list})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Authorize(r.Context(), shared.PermProductsRead); err != nil {
		httpx.RespondError(w, err)
		return
	}
	product, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, "get product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Authorize(r.Context(), shared.PermProductsCreate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req CreateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "name is required, prices must be non-negative")
		return
	}
	product, err := h.service.Create(r.Context(), actor.UserID, req)
	if err != nil {
		h.respondServiceError(w, "create product", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Authorize(r.Context(), shared.PermProductsUpdate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid fields")
		return
	}
	product, err := h.service.Update(r.Context(), actor.UserID, chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondServiceError(w, "update product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Authorize(r.Context(), shared.PermProductsDelete)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), actor.UserID, chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, "delete product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "product not found")
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
