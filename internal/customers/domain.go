package customers

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates the customer or address does not exist.
	ErrNotFound = errors.New("customers: not found")
)

// CustomerType distinguishes household and business accounts.
type CustomerType string

const (
	TypeHogar   CustomerType = "Hogar"
	TypeEmpresa CustomerType = "Empresa"
)

// IsValid reports whether the type belongs to the closed set.
func (t CustomerType) IsValid() bool {
	return t == TypeHogar || t == TypeEmpresa
}

// Customer is one delivery account.
type Customer struct {
	ID            string       `json:"customer_id"`
	Name          string       `json:"name"`
	BusinessName  string       `json:"business_name,omitempty"`
	RUT           string       `json:"rut,omitempty"`
	ContactName   string       `json:"contact_name,omitempty"`
	Email         string       `json:"email,omitempty"`
	Phone         string       `json:"phone,omitempty"`
	Commune       string       `json:"commune,omitempty"`
	CustomerType  CustomerType `json:"customer_type"`
	ProductFormat string       `json:"product_format,omitempty"`
	Price         float64      `json:"price,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Address is a delivery address with geocoded coordinates for routing.
type Address struct {
	ID           string   `json:"address_id"`
	CustomerID   string   `json:"customer_id"`
	RawAddress   string   `json:"raw_address"`
	Commune      string   `json:"commune,omitempty"`
	StreetName   string   `json:"street_name,omitempty"`
	StreetNumber int      `json:"street_number,omitempty"`
	Apartment    string   `json:"apartment,omitempty"`
	Directions   string   `json:"directions,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	MapsLink     string   `json:"maps_link,omitempty"`
	IsDefault    bool     `json:"is_default"`
}
