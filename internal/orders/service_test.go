package orders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aguatrestorres/backoffice/internal/audit"
)

type stubOrderRepo struct {
	orders map[string]Order

	lastList        ListOrdersRequest
	lastStatus      Status
	lastDeliveredAt *time.Time
	lastPayment     PaymentStatus
	lastPaidAt      *time.Time
	deleted         string
}

func newStubOrderRepo(orders ...Order) *stubOrderRepo {
	r := &stubOrderRepo{orders: map[string]Order{}}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *stubOrderRepo) List(_ context.Context, req ListOrdersRequest) ([]Order, int, error) {
	r.lastList = req
	return nil, 0, nil
}

func (r *stubOrderRepo) PendingWithCoordinates(_ context.Context) ([]RoutableOrder, error) {
	return nil, nil
}

func (r *stubOrderRepo) Get(_ context.Context, id string) (Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (r *stubOrderRepo) Create(_ context.Context, o Order) (Order, error) {
	o.ID = "o-new"
	r.orders[o.ID] = o
	return o, nil
}

func (r *stubOrderRepo) Save(_ context.Context, o Order) (Order, error) {
	r.orders[o.ID] = o
	return o, nil
}

func (r *stubOrderRepo) SetStatus(_ context.Context, id string, status Status, deliveredAt *time.Time) error {
	o := r.orders[id]
	o.Status = status
	o.DeliveredDate = deliveredAt
	r.orders[id] = o
	r.lastStatus = status
	r.lastDeliveredAt = deliveredAt
	return nil
}

func (r *stubOrderRepo) SetPaymentStatus(_ context.Context, id string, status PaymentStatus, paidAt *time.Time) error {
	o := r.orders[id]
	o.PaymentStatus = status
	o.PaymentDate = paidAt
	r.orders[id] = o
	r.lastPayment = status
	r.lastPaidAt = paidAt
	return nil
}

func (r *stubOrderRepo) Delete(_ context.Context, id string) error {
	delete(r.orders, id)
	r.deleted = id
	return nil
}

type captureAuditStore struct {
	entries []audit.Entry
}

func (c *captureAuditStore) Insert(_ context.Context, e audit.Entry) error {
	c.entries = append(c.entries, e)
	return nil
}

func newOrderService(repo RepositoryPort, store audit.Store, at time.Time) *Service {
	rec := audit.NewRecorder(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc := NewService(repo, rec)
	svc.now = func() time.Time { return at }
	return svc
}

var testClock = time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC)

func TestListClampsPaging(t *testing.T) {
	repo := newStubOrderRepo()
	svc := newOrderService(repo, &captureAuditStore{}, testClock)

	if _, _, err := svc.List(context.Background(), ListOrdersRequest{Limit: 9999, Offset: -1}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if repo.lastList.Limit != 200 || repo.lastList.Offset != 0 {
		t.Fatalf("list request = %+v", repo.lastList)
	}

	if _, _, err := svc.List(context.Background(), ListOrdersRequest{}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if repo.lastList.Limit != 50 {
		t.Fatalf("default limit = %d, want 50", repo.lastList.Limit)
	}
}

func TestCreateStartsInPedidoPendiente(t *testing.T) {
	repo := newStubOrderRepo()
	store := &captureAuditStore{}
	svc := newOrderService(repo, store, testClock)

	order, err := svc.Create(context.Background(), "admin-1", CreateOrderRequest{
		CustomerID:  "c1",
		ProductType: " Botellón 20L ",
		Quantity:    6,
		FinalPrice:  18000,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if order.Status != StatusPedido || order.PaymentStatus != PaymentPendiente {
		t.Fatalf("order = %+v", order)
	}
	if order.ProductType != "Botellón 20L" {
		t.Fatalf("product type = %q, want trimmed", order.ProductType)
	}
	if !order.OrderDate.Equal(testClock) {
		t.Fatalf("order date = %v", order.OrderDate)
	}
	if len(store.entries) != 1 || store.entries[0].Action != audit.ActionOrderCreated {
		t.Fatalf("audit = %+v", store.entries)
	}
}

func TestChangeStatusLifecycle(t *testing.T) {
	cases := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"pedido to ruta", StatusPedido, StatusRuta, true},
		{"ruta to despachado", StatusRuta, StatusDespachado, true},
		{"ruta back to pedido", StatusRuta, StatusPedido, true},
		{"pedido to despachado skips ruta", StatusPedido, StatusDespachado, false},
		{"despachado is terminal", StatusDespachado, StatusPedido, false},
		{"no self transition", StatusPedido, StatusPedido, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newStubOrderRepo(Order{ID: "o1", Status: tc.from})
			svc := newOrderService(repo, &captureAuditStore{}, testClock)

			_, err := svc.ChangeStatus(context.Background(), "admin-1", "o1", tc.to)
			if tc.allowed && err != nil {
				t.Fatalf("ChangeStatus: %v", err)
			}
			if !tc.allowed && !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("err = %v, want ErrInvalidTransition", err)
			}
		})
	}
}

func TestChangeStatusRejectsUnknownStatus(t *testing.T) {
	repo := newStubOrderRepo(Order{ID: "o1", Status: StatusPedido})
	svc := newOrderService(repo, &captureAuditStore{}, testClock)

	if _, err := svc.ChangeStatus(context.Background(), "admin-1", "o1", Status("Perdido")); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestDespachadoStampsDeliveredDate(t *testing.T) {
	repo := newStubOrderRepo(Order{ID: "o1", Status: StatusRuta})
	store := &captureAuditStore{}
	svc := newOrderService(repo, store, testClock)

	order, err := svc.ChangeStatus(context.Background(), "admin-1", "o1", StatusDespachado)
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if order.DeliveredDate == nil || !order.DeliveredDate.Equal(testClock) {
		t.Fatalf("delivered date = %v", order.DeliveredDate)
	}
	if len(store.entries) != 1 {
		t.Fatalf("audit entries = %d", len(store.entries))
	}
	e := store.entries[0]
	if e.Action != audit.ActionOrderStatusChanged {
		t.Fatalf("action = %s", e.Action)
	}
	if e.OldValue["status"] != "Ruta" || e.NewValue["status"] != "Despachado" {
		t.Fatalf("audit values = %v -> %v", e.OldValue, e.NewValue)
	}
}

func TestRutaToPedidoClearsDeliveredStamp(t *testing.T) {
	repo := newStubOrderRepo(Order{ID: "o1", Status: StatusRuta})
	svc := newOrderService(repo, &captureAuditStore{}, testClock)

	if _, err := svc.ChangeStatus(context.Background(), "admin-1", "o1", StatusPedido); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if repo.lastDeliveredAt != nil {
		t.Fatalf("delivered at = %v, want nil", repo.lastDeliveredAt)
	}
}

func TestPagadoStampsPaymentDate(t *testing.T) {
	repo := newStubOrderRepo(Order{ID: "o1", Status: StatusPedido, PaymentStatus: PaymentPendiente})
	store := &captureAuditStore{}
	svc := newOrderService(repo, store, testClock)

	order, err := svc.ChangePayment(context.Background(), "admin-1", "o1", PaymentPagado)
	if err != nil {
		t.Fatalf("ChangePayment: %v", err)
	}
	if order.PaymentDate == nil || !order.PaymentDate.Equal(testClock) {
		t.Fatalf("payment date = %v", order.PaymentDate)
	}
	if store.entries[0].Action != audit.ActionOrderPaymentChanged {
		t.Fatalf("action = %s", store.entries[0].Action)
	}

	// Facturado does not stamp a payment date.
	if _, err := svc.ChangePayment(context.Background(), "admin-1", "o1", PaymentFacturado); err != nil {
		t.Fatalf("ChangePayment: %v", err)
	}
	if repo.lastPaidAt != nil {
		t.Fatalf("paid at = %v, want nil for Facturado", repo.lastPaidAt)
	}
}

func TestUpdatePatchesOnlyProvidedFields(t *testing.T) {
	repo := newStubOrderRepo(Order{ID: "o1", Status: StatusPedido, Quantity: 4, FinalPrice: 12000, Details: "dejar en portería"})
	store := &captureAuditStore{}
	svc := newOrderService(repo, store, testClock)

	qty := 8
	after, err := svc.Update(context.Background(), "admin-1", "o1", UpdateOrderRequest{Quantity: &qty})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if after.Quantity != 8 {
		t.Fatalf("quantity = %d", after.Quantity)
	}
	if after.FinalPrice != 12000 || after.Details != "dejar en portería" {
		t.Fatalf("untouched fields changed: %+v", after)
	}
	if store.entries[0].Action != audit.ActionOrderUpdated {
		t.Fatalf("action = %s", store.entries[0].Action)
	}
}

func TestDeleteAuditsSnapshot(t *testing.T) {
	repo := newStubOrderRepo(Order{ID: "o1", CustomerID: "c1", Status: StatusPedido, Quantity: 2})
	store := &captureAuditStore{}
	svc := newOrderService(repo, store, testClock)

	if err := svc.Delete(context.Background(), "admin-1", "o1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if repo.deleted != "o1" {
		t.Fatalf("deleted = %q", repo.deleted)
	}
	e := store.entries[0]
	if e.Action != audit.ActionOrderDeleted || e.OldValue["customer_id"] != "c1" {
		t.Fatalf("audit entry = %+v", e)
	}
}

func TestMutationsOnMissingOrderReturnNotFound(t *testing.T) {
	svc := newOrderService(newStubOrderRepo(), &captureAuditStore{}, testClock)

	if _, err := svc.ChangeStatus(context.Background(), "a", "ghost", StatusRuta); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ChangeStatus err = %v", err)
	}
	if _, err := svc.ChangePayment(context.Background(), "a", "ghost", PaymentPagado); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ChangePayment err = %v", err)
	}
	if err := svc.Delete(context.Background(), "a", "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete err = %v", err)
	}
}
