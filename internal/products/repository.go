package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for the catalog.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `product_id, COALESCE(name, ''), COALESCE(category, ''), COALESCE(image_url, ''),
	COALESCE(price_neto, 0), COALESCE(pv_iva_inc, 0), COALESCE(is_active, TRUE), created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.ImageURL, &p.PriceNeto, &p.PriceIVA, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// List returns catalog items, optionally filtered by category.
func (r *Repository) List(ctx context.Context, category string, activeOnly bool) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE ($1 = '' OR category = $1) AND (NOT $2 OR is_active)
		ORDER BY name`, category, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("products: list: %w", err)
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("products: scan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get fetches one product.
func (r *Repository) Get(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE product_id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("products: get: %w", err)
	}
	return p, nil
}

// Create inserts a product.
func (r *Repository) Create(ctx context.Context, p Product) (Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (product_id, name, category, image_url, price_neto, pv_iva_inc, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW(), NOW())`,
		p.ID, p.Name, p.Category, p.ImageURL, p.PriceNeto, p.PriceIVA)
	if err != nil {
		return Product{}, fmt.Errorf("products: create: %w", err)
	}
	return r.Get(ctx, p.ID)
}

// Save replaces the mutable columns of a product.
func (r *Repository) Save(ctx context.Context, p Product) (Product, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products SET name = $2, category = $3, image_url = $4, price_neto = $5,
			pv_iva_inc = $6, is_active = $7, updated_at = NOW()
		WHERE product_id = $1`,
		p.ID, p.Name, p.Category, p.ImageURL, p.PriceNeto, p.PriceIVA, p.IsActive)
	if err != nil {
		return Product{}, fmt.Errorf("products: save: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Product{}, ErrNotFound
	}
	return r.Get(ctx, p.ID)
}

// Delete removes a product from the catalog.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE product_id = $1`, id)
	if err != nil {
		return fmt.Errorf("products: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
