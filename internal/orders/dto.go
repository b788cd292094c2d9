package orders

import "time"

// CreateOrderRequest registers a new order.
type CreateOrderRequest struct {
	CustomerID        string  `json:"customer_id" validate:"required"`
	DeliveryAddressID string  `json:"delivery_address_id,omitempty"`
	ProductType       string  `json:"product_type,omitempty" validate:"omitempty,max=100"`
	Quantity          int     `json:"quantity" validate:"required,gt=0,lte=500"`
	PaymentType       string  `json:"payment_type,omitempty" validate:"omitempty,oneof=Efectivo Transferencia"`
	FinalPrice        float64 `json:"final_price" validate:"gte=0"`
	Details           string  `json:"details,omitempty" validate:"omitempty,max=1000"`
}

// UpdateOrderRequest patches order details that do not affect the lifecycle.
type UpdateOrderRequest struct {
	DeliveryAddressID *string  `json:"delivery_address_id,omitempty"`
	ProductType       *string  `json:"product_type,omitempty" validate:"omitempty,max=100"`
	Quantity          *int     `json:"quantity,omitempty" validate:"omitempty,gt=0,lte=500"`
	BottlesDelivered  *int     `json:"bottles_delivered,omitempty" validate:"omitempty,gte=0"`
	BottlesReturned   *int     `json:"bottles_returned,omitempty" validate:"omitempty,gte=0"`
	PaymentType       *string  `json:"payment_type,omitempty" validate:"omitempty,oneof=Efectivo Transferencia"`
	FinalPrice        *float64 `json:"final_price,omitempty" validate:"omitempty,gte=0"`
	Details           *string  `json:"details,omitempty" validate:"omitempty,max=1000"`
	DeliveryPhotoPath *string  `json:"delivery_photo_path,omitempty" validate:"omitempty,max=500"`
}

// ChangeStatusRequest moves an order along the lifecycle.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Pedido Ruta Despachado"`
}

// ChangePaymentRequest updates the settlement state.
type ChangePaymentRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=Pendiente Pagado Facturado Interno"`
}

// ListOrdersRequest filters the order listing.
type ListOrdersRequest struct {
	CustomerID    string
	Status        string
	PaymentStatus string
	From          time.Time
	To            time.Time
	Limit         int
	Offset        int
}
