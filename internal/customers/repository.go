package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aguatrestorres/backoffice/internal/shared"
)

// Repository provides PostgreSQL backed persistence for customers.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const customerColumns = `customer_id, COALESCE(name, ''), COALESCE(business_name, ''), COALESCE(rut, ''),
	COALESCE(contact_name, ''), COALESCE(email, ''), COALESCE(phone, ''), COALESCE(commune, ''),
	COALESCE(customer_type, 'Hogar'), COALESCE(product_format, ''), COALESCE(price, 0), created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.BusinessName, &c.RUT, &c.ContactName, &c.Email, &c.Phone,
		&c.Commune, &c.CustomerType, &c.ProductFormat, &c.Price, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// List returns a filtered page of customers plus the exact total.
// Search is accent-insensitive against the precomputed search_text column.
func (r *Repository) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if req.Search != "" {
		where = append(where, "search_text LIKE "+arg("%"+shared.FoldSearchTerm(req.Search)+"%"))
	}
	if req.CustomerType != "" {
		where = append(where, "customer_type = "+arg(req.CustomerType))
	}
	if req.Commune != "" {
		where = append(where, "commune = "+arg(req.Commune))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM customers WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("customers: count: %w", err)
	}

	query := "SELECT " + customerColumns + " FROM customers WHERE " + cond +
		" ORDER BY name LIMIT " + arg(req.Limit) + " OFFSET " + arg(req.Offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("customers: list: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("customers: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// Get fetches one customer.
func (r *Repository) Get(ctx context.Context, id string) (Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx, "SELECT "+customerColumns+" FROM customers WHERE customer_id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrNotFound
		}
		return Customer{}, fmt.Errorf("customers: get: %w", err)
	}
	return c, nil
}

// Create inserts a customer.
func (r *Repository) Create(ctx context.Context, c Customer) (Customer, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO customers (customer_id, name, business_name, rut, contact_name, email, phone,
			commune, customer_type, product_format, price, search_text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())`,
		c.ID, c.Name, c.BusinessName, c.RUT, c.ContactName, c.Email, c.Phone,
		c.Commune, string(c.CustomerType), c.ProductFormat, c.Price, searchText(c))
	if err != nil {
		return Customer{}, fmt.Errorf("customers: create: %w", err)
	}
	return r.Get(ctx, c.ID)
}

// Save replaces the mutable columns of an existing customer.
func (r *Repository) Save(ctx context.Context, c Customer) (Customer, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE customers SET name = $2, business_name = $3, rut = $4, contact_name = $5,
			email = $6, phone = $7, commune = $8, customer_type = $9, product_format = $10,
			price = $11, search_text = $12, updated_at = NOW()
		WHERE customer_id = $1`,
		c.ID, c.Name, c.BusinessName, c.RUT, c.ContactName, c.Email, c.Phone,
		c.Commune, string(c.CustomerType), c.ProductFormat, c.Price, searchText(c))
	if err != nil {
		return Customer{}, fmt.Errorf("customers: save: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Customer{}, ErrNotFound
	}
	return r.Get(ctx, c.ID)
}

// Delete removes a customer.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE customer_id = $1`, id)
	if err != nil {
		return fmt.Errorf("customers: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Addresses lists the delivery addresses of one customer.
func (r *Repository) Addresses(ctx context.Context, customerID string) ([]Address, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT address_id, customer_id, COALESCE(raw_address, ''), COALESCE(commune, ''),
		       COALESCE(street_name, ''), COALESCE(street_number, 0), COALESCE(apartment, ''),
		       COALESCE(directions, ''), latitude, longitude, COALESCE(maps_link, ''), COALESCE(is_default, FALSE)
		FROM addresses WHERE customer_id = $1 ORDER BY is_default DESC, address_id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("customers: addresses: %w", err)
	}
	defer rows.Close()
	var out []Address
	for rows.Next() {
		var a Address
		if err := rows.Scan(&a.ID, &a.CustomerID, &a.RawAddress, &a.Commune, &a.StreetName,
			&a.StreetNumber, &a.Apartment, &a.Directions, &a.Latitude, &a.Longitude, &a.MapsLink, &a.IsDefault); err != nil {
			return nil, fmt.Errorf("customers: scan address: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpsertAddress inserts or replaces one address. Marking an address default
// clears the flag on the customer's other addresses in the same transaction.
func (r *Repository) UpsertAddress(ctx context.Context, a Address) (Address, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Address{}, fmt.Errorf("customers: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if a.IsDefault {
		if _, err := tx.Exec(ctx, `UPDATE addresses SET is_default = FALSE WHERE customer_id = $1`, a.CustomerID); err != nil {
			return Address{}, fmt.Errorf("customers: clear default: %w", err)
		}
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO addresses (address_id, customer_id, raw_address, commune, street_name, street_number,
			apartment, directions, latitude, longitude, maps_link, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (address_id) DO UPDATE SET
			raw_address = EXCLUDED.raw_address, commune = EXCLUDED.commune,
			street_name = EXCLUDED.street_name, street_number = EXCLUDED.street_number,
			apartment = EXCLUDED.apartment, directions = EXCLUDED.directions,
			latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude,
			maps_link = EXCLUDED.maps_link, is_default = EXCLUDED.is_default`,
		a.ID, a.CustomerID, a.RawAddress, a.Commune, a.StreetName, a.StreetNumber,
		a.Apartment, a.Directions, a.Latitude, a.Longitude, a.MapsLink, a.IsDefault)
	if err != nil {
		return Address{}, fmt.Errorf("customers: upsert address: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Address{}, fmt.Errorf("customers: commit: %w", err)
	}
	return a, nil
}

// AddressesMissingCoordinates lists addresses the geocoder has not resolved
// yet. Input for the background refresh task.
func (r *Repository) AddressesMissingCoordinates(ctx context.Context, limit int) ([]Address, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT address_id, customer_id, COALESCE(raw_address, ''), COALESCE(commune, ''),
		       COALESCE(street_name, ''), COALESCE(street_number, 0), COALESCE(apartment, ''),
		       COALESCE(directions, ''), latitude, longitude, COALESCE(maps_link, ''), COALESCE(is_default, FALSE)
		FROM addresses
		WHERE (latitude IS NULL OR longitude IS NULL) AND COALESCE(raw_address, '') <> ''
		ORDER BY address_id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("customers: addresses missing coordinates: %w", err)
	}
	defer rows.Close()
	var out []Address
	for rows.Next() {
		var a Address
		if err := rows.Scan(&a.ID, &a.CustomerID, &a.RawAddress, &a.Commune, &a.StreetName,
			&a.StreetNumber, &a.Apartment, &a.Directions, &a.Latitude, &a.Longitude, &a.MapsLink, &a.IsDefault); err != nil {
			return nil, fmt.Errorf("customers: scan address: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetAddressCoordinates stores the geocoder result for one address.
func (r *Repository) SetAddressCoordinates(ctx context.Context, addressID string, lat, lng float64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE addresses SET latitude = $2, longitude = $3 WHERE address_id = $1`,
		addressID, lat, lng)
	if err != nil {
		return fmt.Errorf("customers: set coordinates: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DistinctCommunes lists the communes customers get deliveries in.
func (r *Repository) DistinctCommunes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT commune FROM addresses
		WHERE COALESCE(commune, '') <> '' ORDER BY commune`)
	if err != nil {
		return nil, fmt.Errorf("customers: distinct communes: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var commune string
		if err := rows.Scan(&commune); err != nil {
			return nil, fmt.Errorf("customers: scan commune: %w", err)
		}
		out = append(out, commune)
	}
	return out, rows.Err()
}

func searchText(c Customer) string {
	return shared.FoldSearchTerm(strings.Join([]string{c.Name, c.BusinessName, c.RUT, c.Commune}, " "))
}
