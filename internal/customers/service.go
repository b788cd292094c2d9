package customers

import (
	"context"
	"fmt"
	"strings"

	"github.com/aguatrestorres/backoffice/internal/audit"
)

// RepositoryPort defines data access methods for customers.
type RepositoryPort interface {
	List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error)
	Get(ctx context.Context, id string) (Customer, error)
	Create(ctx context.Context, c Customer) (Customer, error)
	Save(ctx context.Context, c Customer) (Customer, error)
	Delete(ctx context.Context, id string) error
	Addresses(ctx context.Context, customerID string) ([]Address, error)
	UpsertAddress(ctx context.Context, a Address) (Address, error)
}

// Service handles customer business logic.
type Service struct {
	repo    RepositoryPort
	auditor *audit.Recorder

	// OnPendingGeocode, when set, is invoked after an address is saved
	// without coordinates so a background geocode pass can resolve it.
	OnPendingGeocode func(ctx context.Context)
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, auditor *audit.Recorder) *Service {
	return &Service{repo: repo, auditor: auditor}
}

// List returns a filtered customer page plus total count.
func (s *Service) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	if req.Limit > 200 {
		req.Limit = 200
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	return s.repo.List(ctx, req)
}

// Get returns one customer with its addresses.
func (s *Service) Get(ctx context.Context, id string) (Customer, []Address, error) {
	customer, err := s.repo.Get(ctx, id)
	if err != nil {
		return Customer{}, nil, err
	}
	addresses, err := s.repo.Addresses(ctx, id)
	if err != nil {
		return Customer{}, nil, fmt.Errorf("load addresses: %w", err)
	}
	return customer, addresses, nil
}

// Create registers a new customer and audits it.
func (s *Service) Create(ctx context.Context, actorID string, req CreateCustomerRequest) (Customer, error) {
	customer, err := s.repo.Create(ctx, Customer{
		Name:          strings.TrimSpace(req.Name),
		BusinessName:  strings.TrimSpace(req.BusinessName),
		RUT:           strings.TrimSpace(req.RUT),
		ContactName:   strings.TrimSpace(req.ContactName),
		Email:         strings.TrimSpace(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		Commune:       strings.TrimSpace(req.Commune),
		CustomerType:  CustomerType(req.CustomerType),
		ProductFormat: strings.TrimSpace(req.ProductFormat),
		Price:         req.Price,
	})
	if err != nil {
		return Customer{}, err
	}
	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     audit.ActionCustomerCreated,
		EntityType: "customer",
		EntityID:   customer.ID,
		NewValue:   map[string]any{"name": customer.Name, "customer_type": string(customer.CustomerType)},
	})
	return customer, nil
}

// Update patches a customer and audits before/after state.
func (s *Service) Update(ctx context.Context, actorID, id string, req UpdateCustomerRequest) (Customer, error) {
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return Customer{}, err
	}

	next := before
	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	apply(&next.Name, req.Name)
	apply(&next.BusinessName, req.BusinessName)
	apply(&next.RUT, req.RUT)
	apply(&next.ContactName, req.ContactName)
	apply(&next.Email, req.Email)
	apply(&next.Phone, req.Phone)
	apply(&next.Commune, req.Commune)
	apply(&next.ProductFormat, req.ProductFormat)
	if req.CustomerType != nil {
		next.CustomerType = CustomerType(*req.CustomerType)
	}
	if req.Price != nil {
		next.Price = *req.Price
	}

	after, err := s.repo.Save(ctx, next)
	if err != nil {
		return Customer{}, err
	}
	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     audit.ActionCustomerUpdated,
		EntityType: "customer",
		EntityID:   id,
		OldValue:   map[string]any{"name": before.Name, "commune": before.Commune, "price": before.Price},
		NewValue:   map[string]any{"name": after.Name, "commune": after.Commune, "price": after.Price},
	})
	return after, nil
}

// Delete removes a customer and audits the removal with a final snapshot.
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
		Action:     audit.ActionCustomerDeleted,
		EntityType: "customer",
		EntityID:   id,
		OldValue:   map[string]any{"name": before.Name, "customer_type": string(before.CustomerType)},
	})
	return nil
}

// UpsertAddress creates or replaces a delivery address for a customer.
func (s *Service) UpsertAddress(ctx context.Context, customerID, addressID string, req UpsertAddressRequest) (Address, error) {
	if _, err := s.repo.Get(ctx, customerID); err != nil {
		return Address{}, err
	}
	saved, err := s.repo.UpsertAddress(ctx, Address{
		ID:           addressID,
		CustomerID:   customerID,
		RawAddress:   strings.TrimSpace(req.RawAddress),
		Commune:      strings.TrimSpace(req.Commune),
		StreetName:   strings.TrimSpace(req.StreetName),
		StreetNumber: req.StreetNumber,
		Apartment:    strings.TrimSpace(req.Apartment),
		Directions:   strings.TrimSpace(req.Directions),
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		MapsLink:     strings.TrimSpace(req.MapsLink),
		IsDefault:    req.IsDefault,
	})
	if err != nil {
		return Address{}, err
	}
	if s.OnPendingGeocode != nil && (saved.Latitude == nil || saved.Longitude == nil) {
		s.OnPendingGeocode(ctx)
	}
	return saved, nil
}
