package customers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aguatrestorres/backoffice/internal/platform/httpx"
	"github.com/aguatrestorres/backoffice/internal/rbac"
	"github.com/aguatrestorres/backoffice/internal/shared"
)

// Handler manages customer endpoints.
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

// MountRoutes registers customer routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/customers", h.list)
	r.Get("/customers/{id}", h.get)
	r.Post("/customers", h.create)
	r.Patch("/customers/{id}", h.update)
	r.Delete("/customers/{id}", h.delete)
	r.Put("/customers/{id}/addresses", h.upsertAddress)
	r.Put("/customers/{id}/addresses/{addressID}", h.upsertAddress)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Authorize(r.Context(), shared.PermCustomersRead); err != nil {
		httpx.RespondError(w, err)
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	list, total, err := h.service.List(r.Context(), ListCustomersRequest{
		Search:       q.Get("search"),
		CustomerType: q.Get("customer_type"),
		Commune:      q.Get("commune"),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		h.logger.Error("list customers", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"customers": list, "total": total})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Authorize(r.Context(), shared.PermCustomersRead); err != nil {
		httpx.RespondError(w, err)
		return
	}
	customer, addresses, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, "get customer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"customer": customer, "addresses": addresses})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Authorize(r.Context(), shared.PermCustomersCreate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req CreateCustomerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "name and customer_type (Hogar|Empresa) are required")
		return
	}
	customer, err := h.service.Create(r.Context(), actor.UserID, req)
	if err != nil {
		h.respondServiceError(w, "create customer", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, customer)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Authorize(r.Context(), shared.PermCustomersUpdate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateCustomerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid fields")
		return
	}
	customer, err := h.service.Update(r.Context(), actor.UserID, chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondServiceError(w, "update customer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Authorize(r.Context(), shared.PermCustomersDelete)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), actor.UserID, chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, "delete customer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) upsertAddress(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Authorize(r.Context(), shared.PermCustomersUpdate); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpsertAddressRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "raw_address is required")
		return
	}
	address, err := h.service.UpsertAddress(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "addressID"), req)
	if err != nil {
		h.respondServiceError(w, "upsert address", err)
		return
	}
	httpx.JSON(w, http.StatusOK, address)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "customer not found")
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
