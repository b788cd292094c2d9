package products

// CreateProductRequest adds a catalog item.
type CreateProductRequest struct {
	Name      string  `json:"name" validate:"required,max=200"`
	Category  string  `json:"category,omitempty" validate:"omitempty,max=100"`
	ImageURL  string  `json:"image_url,omitempty" validate:"omitempty,url,max=500"`
	PriceNeto float64 `json:"price_neto" validate:"gte=0"`
	PriceIVA  float64 `json:"pv_iva_inc" validate:"gte=0"`
}

// UpdateProductRequest patches a catalog item.
type UpdateProductRequest struct {
	Name      *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Category  *string  `json:"category,omitempty" validate:"omitempty,max=100"`
	ImageURL  *string  `json:"image_url,omitempty" validate:"omitempty,url,max=500"`
	PriceNeto *float64 `json:"price_neto,omitempty" validate:"omitempty,gte=0"`
	PriceIVA  *float64 `json:"pv_iva_inc,omitempty" validate:"omitempty,gte=0"`
	IsActive  *bool    `json:"is_active,omitempty"`
}
