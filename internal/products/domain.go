package products

import (
	"errors"
	"time"
)

// ErrNotFound indicates the product does not exist.
var ErrNotFound = errors.New("products: not found")

// Product is one catalog item. Prices follow Chilean invoicing: a net
// price and the consumer price with IVA included.
type Product struct {
	ID        string    `json:"product_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	PriceNeto float64   `json:"price_neto"`
	PriceIVA  float64   `json:"pv_iva_inc"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
