package orders

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the order does not exist.
	ErrNotFound = errors.New("orders: not found")
	// ErrInvalidTransition indicates a status change outside the lifecycle.
	ErrInvalidTransition = errors.New("orders: invalid status transition")
)

// Status is the delivery lifecycle of an order.
type Status string

const (
	StatusPedido     Status = "Pedido"     // taken, waiting for route assignment
	StatusRuta       Status = "Ruta"       // on a delivery route
	StatusDespachado Status = "Despachado" // delivered
)

// IsValid reports whether the status belongs to the closed set.
func (s Status) IsValid() bool {
	switch s {
	case StatusPedido, StatusRuta, StatusDespachado:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the move is allowed. The lifecycle only
// moves forward, except a route assignment can fall back to Pedido when a
// delivery is postponed.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPedido:
		return next == StatusRuta
	case StatusRuta:
		return next == StatusDespachado || next == StatusPedido
	default:
		return false
	}
}

// PaymentStatus tracks how an order gets settled.
type PaymentStatus string

const (
	PaymentPendiente PaymentStatus = "Pendiente"
	PaymentPagado    PaymentStatus = "Pagado"
	PaymentFacturado PaymentStatus = "Facturado"
	PaymentInterno   PaymentStatus = "Interno"
)

// IsValid reports whether the payment status belongs to the closed set.
func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentPendiente, PaymentPagado, PaymentFacturado, PaymentInterno:
		return true
	default:
		return false
	}
}

// RoutableOrder is an order awaiting routing, joined with the geocoded
// coordinates of its delivery address.
type RoutableOrder struct {
	OrderID      string   `json:"order_id"`
	CustomerName string   `json:"customer_name"`
	Address      string   `json:"raw_address"`
	Commune      string   `json:"commune"`
	Quantity     int      `json:"quantity"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

// Order is one bottled-water delivery order.
type Order struct {
	ID                string        `json:"order_id"`
	CustomerID        string        `json:"customer_id"`
	DeliveryAddressID string        `json:"delivery_address_id,omitempty"`
	ProductType       string        `json:"product_type,omitempty"`
	Quantity          int           `json:"quantity"`
	BottlesDelivered  int           `json:"bottles_delivered"`
	BottlesReturned   int           `json:"bottles_returned"`
	Status            Status        `json:"status"`
	PaymentStatus     PaymentStatus `json:"payment_status"`
	PaymentType       string        `json:"payment_type,omitempty"`
	FinalPrice        float64       `json:"final_price"`
	Details           string        `json:"details,omitempty"`
	DeliveryPhotoPath string        `json:"delivery_photo_path,omitempty"`
	OrderDate         time.Time     `json:"order_date"`
	DeliveredDate     *time.Time    `json:"delivered_date,omitempty"`
	PaymentDate       *time.Time    `json:"payment_date,omitempty"`
	CreatedBy         string        `json:"created_by,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}
