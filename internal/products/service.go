package products

import (
	"context"
	"strings"

	"github.com/aguatrestorres/backoffice/internal/audit"
)

// RepositoryPort defines data access methods for the catalog.
type RepositoryPort interface {
	List(ctx context.Context, category string, activeOnly bool) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Save(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, id string) error
}

// Service handles catalog business logic.
type Service struct {
	repo    RepositoryPort
	auditor *audit.Recorder
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, auditor *audit.Recorder) *Service {
	return &Service{repo: repo, auditor: auditor}
}

// List returns catalog items.
func (s *Service) List(ctx context.Context, category string, activeOnly bool) ([]Product, error) {
	return s.repo.List(ctx, category, activeOnly)
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	return s.repo.Get(ctx, id)
}

// Create adds a catalog item and audits it.
func (s *Service) Create(ctx context.Context, actorID string, req CreateProductRequest) (Product, error) {
	product, err := s.repo.Create(ctx, Product{
		Name:      strings.TrimSpace(req.Name),
		Category:  strings.TrimSpace(req.Category),
		ImageURL:  strings.TrimSpace(req.ImageURL),
		PriceNeto: req.PriceNeto,
		PriceIVA:  req.PriceIVA,
	})
	if err != nil {
		return Product{}, err
	}
	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     audit.ActionProductCreated,
		EntityType: "product",
		EntityID:   product.ID,
		NewValue:   map[string]any{"name": product.Name, "pv_iva_inc": product.PriceIVA},
	})
	return product, nil
}

// Update patches a catalog item and audits before/after pricing.
func (s *Service) Update(ctx context.Context, actorID, id string, req UpdateProductRequest) (Product, error) {
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	next := before
	if req.Name != nil {
		next.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		next.Category = strings.TrimSpace(*req.Category)
	}
	if req.ImageURL != nil {
		next.ImageURL = strings.TrimSpace(*req.ImageURL)
	}
	if req.PriceNeto != nil {
		next.PriceNeto = *req.PriceNeto
	}
	if req.PriceIVA != nil {
		next.PriceIVA = *req.PriceIVA
	}
	if req.IsActive != nil {
		next.IsActive = *req.IsActive
	}

	after, err := s.repo.Save(ctx, next)
	if err != nil {
		return Product{}, err
	}
	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actorID,
		Action:     audit.ActionProductUpdated,
		EntityType: "product",
		EntityID:   id,
		OldValue:   map[string]any{"name": before.Name, "pv_iva_inc": before.PriceIVA, "is_active": before.IsActive},
		NewValue:   map[string]any{"name": after.Name, "pv_iva_inc": after.PriceIVA, "is_active": after.IsActive},
	})
	return after, nil
}

// Delete removes a product and audits the removal.
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
		Action:     audit.ActionProductDeleted,
		EntityType: "product",
		EntityID:   id,
		OldValue:   map[string]any{"name": before.Name},
	})
	return nil
}
