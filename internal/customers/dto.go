package customers

// CreateCustomerRequest creates a new customer account.
type CreateCustomerRequest struct {
	Name          string  `json:"name" validate:"required,max=200"`
	BusinessName  string  `json:"business_name,omitempty" validate:"omitempty,max=200"`
	RUT           string  `json:"rut,omitempty" validate:"omitempty,max=20"`
	ContactName   string  `json:"contact_name,omitempty" validate:"omitempty,max=200"`
	Email         string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone         string  `json:"phone,omitempty" validate:"omitempty,max=50"`
	Commune       string  `json:"commune,omitempty" validate:"omitempty,max=100"`
	CustomerType  string  `json:"customer_type" validate:"required,oneof=Hogar Empresa"`
	ProductFormat string  `json:"product_format,omitempty" validate:"omitempty,max=100"`
	Price         float64 `json:"price" validate:"gte=0"`
}

// UpdateCustomerRequest patches an existing customer.
type UpdateCustomerRequest struct {
	Name          *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	BusinessName  *string  `json:"business_name,omitempty" validate:"omitempty,max=200"`
	RUT           *string  `json:"rut,omitempty" validate:"omitempty,max=20"`
	ContactName   *string  `json:"contact_name,omitempty" validate:"omitempty,max=200"`
	Email         *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone         *string  `json:"phone,omitempty" validate:"omitempty,max=50"`
	Commune       *string  `json:"commune,omitempty" validate:"omitempty,max=100"`
	CustomerType  *string  `json:"customer_type,omitempty" validate:"omitempty,oneof=Hogar Empresa"`
	ProductFormat *string  `json:"product_format,omitempty" validate:"omitempty,max=100"`
	Price         *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
}

// UpsertAddressRequest creates or replaces a delivery address.
type UpsertAddressRequest struct {
	RawAddress   string   `json:"raw_address" validate:"required,max=300"`
	Commune      string   `json:"commune,omitempty" validate:"omitempty,max=100"`
	StreetName   string   `json:"street_name,omitempty" validate:"omitempty,max=200"`
	StreetNumber int      `json:"street_number,omitempty" validate:"omitempty,gte=0"`
	Apartment    string   `json:"apartment,omitempty" validate:"omitempty,max=50"`
	Directions   string   `json:"directions,omitempty" validate:"omitempty,max=500"`
	Latitude     *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	MapsLink     string   `json:"maps_link,omitempty" validate:"omitempty,max=500"`
	IsDefault    bool     `json:"is_default"`
}

// ListCustomersRequest filters the customer listing.
type ListCustomersRequest struct {
	Search       string
	CustomerType string
	Commune      string
	Limit        int
	Offset       int
}
