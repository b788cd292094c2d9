package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aguatrestorres/backoffice/internal/platform/httpx"
	"github.com/aguatrestorres/backoffice/internal/rbac"
	"github.com/aguatrestorres/backoffice/internal/shared"
)

// Handler manages order endpoints.
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

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/orders", h.list)
	r.Get("/orders/pending", h.pending)
	r.Get("/orders/{id}", h.get)
	r.Post("/orders", h.create)
	r.Patch("/orders/{id}", h.update)
	r.Post("/orders/{id}/status", h.changeStatus)
	r.Post("/orders/{id}/payment", h.changePayment)
	r.Delete("/orders/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Authorize(r.Context(), shared.PermOrdersRead); err != nil {
		httpx.RespondError(w, err)
		return
	}
	q := r.URL.Query()
	req := ListOrdersRequest{
		CustomerID:    q.Get("customer_id"),
		Status:        q.Get("status"),
		PaymentStatus: q.Get("payment_status"),
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	req.Limit, req.Offset = shared.ClampLimitOffset(limit, offset, defaultLimit, maxLimit)
	if v := q.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must be YYYY-MM-DD")
			return
		}
		req.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to must be YYYY-MM-DD")
			return
		}
		req.To = t
	}
	list, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list orders", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if list == nil {
		list = []Order{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"orders": list, "total": total})
}

func (h *Handler) pending(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Authorize(r.Context(), shared.PermOrdersRead); err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.Pending(r.Context())
	if err != nil {
		h.logger.Error("list pending orders", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if list == nil {
		list = []RoutableOrder{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"orders": list})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.Authorize(r.Context(), shared.PermOrdersRead); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, "get order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Authorize(r.Context(), shared.PermOrdersCreate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req CreateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "customer_id and a positive quantity are required")
		return
	}
	order, err := h.service.Create(r.Context(), actor.UserID, req)
	if err != nil {
		h.respondServiceError(w, "create order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Authorize(r.Context(), shared.PermOrdersUpdate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid fields")
		return
	}
	order, err := h.service.Update(r.Context(), actor.UserID, chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondServiceError(w, "update order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Authorize(r.Context(), shared.PermOrdersUpdate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req ChangeStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "status must be Pedido, Ruta or Despachado")
		return
	}
	order, err := h.service.ChangeStatus(r.Context(), actor.UserID, chi.URLParam(r, "id"), Status(req.Status))
	if err != nil {
		h.respondServiceError(w, "change order status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) changePayment(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Authorize(r.Context(), shared.PermOrdersUpdate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req ChangePaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "payment_status is invalid")
		return
	}
	order, err := h.service.ChangePayment(r.Context(), actor.UserID, chi.URLParam(r, "id"), PaymentStatus(req.PaymentStatus))
	if err != nil {
		h.respondServiceError(w, "change order payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, err := h.guard.Authorize(r.Context(), shared.PermOrdersDelete)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), actor.UserID, chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, "delete order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "order not found")
	case errors.Is(err, ErrInvalidTransition):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
