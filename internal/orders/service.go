package orders

import (
	"context"
	"strings"
	"time"

	"github.com/aguatrestorres/backoffice/internal/audit"
)

// RepositoryPort defines data access methods for orders.
type RepositoryPort interface {
	List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error)
	PendingWithCoordinates(ctx context.Context) ([]RoutableOrder, error)
	Get(ctx context.Context, id string) (Order, error)
	Create(ctx context.Context, o Order) (Order, error)
	Save(ctx context.Context, o Order) (Order, error)
	SetStatus(ctx context.Context, id string, status Status, deliveredAt *time.Time) error
	SetPaymentStatus(ctx context.Context, id string, status PaymentStatus, paidAt *time.Time) error
	Delete(ctx context.Context, id string) error
}

// Service handles order business logic.
type Service struct {
	repo    RepositoryPort
	auditor *audit.Recorder
	now     func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, auditor *audit.Recorder) *Service {
	return &Service{repo: repo, auditor: auditor, now: time.Now}
}

const (
	defaultLimit = 50
	maxLimit     = 200
)

// List returns a filtered page of orders plus the exact total.
func (s *Service) List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error) {
	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}
	if req.Limit > maxLimit {
		req.Limit = maxLimit
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	return s.repo.List(ctx, req)
}

// Pending returns orders awaiting routing with their delivery coordinates.
func (s *Service) Pending(ctx context.Context) ([]RoutableOrder, error) {
	return s.repo.PendingWithCoordinates(ctx)
}

// Get returns one order.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new order in the Pedido state and audits it.
func (s *Service) Create(ctx context.Context, actorID string, req CreateOrderRequest) (Order, error) {
	order, err := s.repo.Create(ctx, Order{
		CustomerID:        req.CustomerID,
		DeliveryAddressID: req.DeliveryAddressID,
		ProductType:       strings.TrimSpace(req.ProductType),
		Quantity:          req.Quantity,
		Status:            StatusPedido,
		PaymentStatus:     PaymentPendiente,
		PaymentType:       req.PaymentType,
		FinalPrice:        req.FinalPrice,
		Details:           strings.TrimSpace(req.Details),
		OrderDate:         s.now(),
		CreatedBy:         actorID,
	})
	if err != nil {
		return Order{}, err
	}
	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     audit.ActionOrderCreated,
		EntityType: "order",
		EntityID:   order.ID,
		NewValue: map[string]any{
			"customer_id": order.CustomerID,
			"quantity":    order.Quantity,
			"final_price": order.FinalPrice,
		},
	})
	return order, nil
}

// Update patches order details that do not affect the lifecycle.
func (s *Service) Update(ctx context.Context, actorID, id string, req UpdateOrderRequest) (Order, error) {
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	next := before
	if req.DeliveryAddressID != nil {
		next.DeliveryAddressID = *req.DeliveryAddressID
	}
	if req.ProductType != nil {
		next.ProductType = strings.TrimSpace(*req.ProductType)
	}
	if req.Quantity != nil {
		next.Quantity = *req.Quantity
	}
	if req.BottlesDelivered != nil {
		next.BottlesDelivered = *req.BottlesDelivered
	}
	if req.BottlesReturned != nil {
		next.BottlesReturned = *req.BottlesReturned
	}
	if req.PaymentType != nil {
		next.PaymentType = *req.PaymentType
	}
	if req.FinalPrice != nil {
		next.FinalPrice = *req.FinalPrice
	}
	if req.Details != nil {
		next.Details = strings.TrimSpace(*req.Details)
	}
	if req.DeliveryPhotoPath != nil {
		next.DeliveryPhotoPath = *req.DeliveryPhotoPath
	}

	after, err := s.repo.Save(ctx, next)
	if err != nil {
		return Order{}, err
	}
	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     audit.ActionOrderUpdated,
		EntityType: "order",
		EntityID:   id,
		OldValue:   map[string]any{"quantity": before.Quantity, "final_price": before.FinalPrice},
		NewValue:   map[string]any{"quantity": after.Quantity, "final_price": after.FinalPrice},
	})
	return after, nil
}

// ChangeStatus moves an order along the delivery lifecycle. Reaching
// Despachado stamps the delivery date.
func (s *Service) ChangeStatus(ctx context.Context, actorID, id string, next Status) (Order, error) {
	if !next.IsValid() {
		return Order{}, ErrInvalidTransition
	}
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !before.Status.CanTransitionTo(next) {
		return Order{}, ErrInvalidTransition
	}
	var deliveredAt *time.Time
	if next == StatusDespachado {
		t := s.now()
		deliveredAt = &t
	}
	if err := s.repo.SetStatus(ctx, id, next, deliveredAt); err != nil {
		return Order{}, err
	}
	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     audit.ActionOrderStatusChanged,
		EntityType: "order",
		EntityID:   id,
		OldValue:   map[string]any{"status": string(before.Status)},
		NewValue:   map[string]any{"status": string(next)},
	})
	return s.repo.Get(ctx, id)
}

// ChangePayment updates the settlement state. Reaching Pagado stamps the
// payment date.
func (s *Service) ChangePayment(ctx context.Context, actorID, id string, next PaymentStatus) (Order, error) {
	if !next.IsValid() {
		return Order{}, ErrInvalidTransition
	}
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	var paidAt *time.Time
	if next == PaymentPagado {
		t := s.now()
		paidAt = &t
	}
	if err := s.repo.SetPaymentStatus(ctx, id, next, paidAt); err != nil {
		return Order{}, err
	}
	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     audit.ActionOrderPaymentChanged,
		EntityType: "order",
		EntityID:   id,
		OldValue:   map[string]any{"payment_status": string(before.PaymentStatus)},
		NewValue:   map[string]any{"payment_status": string(next)},
	})
	return s.repo.Get(ctx, id)
}

// Delete removes an order and audits the removal.
func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     audit.ActionOrderDeleted,
		EntityType: "order",
		EntityID:   id,
		OldValue: map[string]any{
			"customer_id": before.CustomerID,
			"status":      string(before.Status),
			"quantity":    before.Quantity,
		},
	})
	return nil
}
