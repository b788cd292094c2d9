package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for orders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orderColumns = `order_id, customer_id, COALESCE(delivery_address_id, ''), COALESCE(product_type, ''),
	COALESCE(quantity, 0), COALESCE(bottles_delivered, 0), COALESCE(bottles_returned, 0),
	COALESCE(status, 'Pedido'), COALESCE(payment_status, 'Pendiente'), COALESCE(payment_type, ''),
	COALESCE(final_price, 0), COALESCE(details, ''), COALESCE(delivery_photo_path, ''),
	order_date, delivered_date, payment_date, COALESCE(created_by, ''), created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.DeliveryAddressID, &o.ProductType,
		&o.Quantity, &o.BottlesDelivered, &o.BottlesReturned,
		&o.Status, &o.PaymentStatus, &o.PaymentType,
		&o.FinalPrice, &o.Details, &o.DeliveryPhotoPath,
		&o.OrderDate, &o.DeliveredDate, &o.PaymentDate, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// List returns a filtered page of orders plus the exact total.
func (r *Repository) List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if req.CustomerID != "" {
		where = append(where, "customer_id = "+arg(req.CustomerID))
	}
	if req.Status != "" {
		where = append(where, "status = "+arg(req.Status))
	}
	if req.PaymentStatus != "" {
		where = append(where, "payment_status = "+arg(req.PaymentStatus))
	}
	if !req.From.IsZero() {
		where = append(where, "order_date >= "+arg(req.From))
	}
	if !req.To.IsZero() {
		where = append(where, "order_date <= "+arg(req.To))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM orders WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("orders: count: %w", err)
	}

	query := "SELECT " + orderColumns + " FROM orders WHERE " + cond +
		" ORDER BY order_date DESC, order_id LIMIT " + arg(req.Limit) + " OFFSET " + arg(req.Offset)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("orders: list: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("orders: scan: %w", err)
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

// PendingWithCoordinates returns orders awaiting routing joined with their
// delivery coordinates, the input for the route optimizer.
func (r *Repository) PendingWithCoordinates(ctx context.Context) ([]RoutableOrder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.order_id, COALESCE(c.name, ''), COALESCE(a.raw_address, ''), COALESCE(a.commune, ''),
		       COALESCE(o.quantity, 0), a.latitude, a.longitude
		FROM orders o
		JOIN customers c ON c.customer_id = o.customer_id
		LEFT JOIN addresses a ON a.address_id = o.delivery_address_id
		WHERE o.status = 'Pedido'
		ORDER BY o.order_date`)
	if err != nil {
		return nil, fmt.Errorf("orders: pending with coordinates: %w", err)
	}
	defer rows.Close()
	var out []RoutableOrder
	for rows.Next() {
		var ro RoutableOrder
		if err := rows.Scan(&ro.OrderID, &ro.CustomerName, &ro.Address, &ro.Commune, &ro.Quantity, &ro.Latitude, &ro.Longitude); err != nil {
			return nil, fmt.Errorf("orders: scan routable: %w", err)
		}
		out = append(out, ro)
	}
	return out, rows.Err()
}

// Get fetches one order.
func (r *Repository) Get(ctx context.Context, id string) (Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, "SELECT "+orderColumns+" FROM orders WHERE order_id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("orders: get: %w", err)
	}
	return o, nil
}

// Create inserts an order.
func (r *Repository) Create(ctx context.Context, o Order) (Order, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO orders (order_id, customer_id, delivery_address_id, product_type, quantity,
			status, payment_status, payment_type, final_price, details, order_date, created_by,
			created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())`,
		o.ID, o.CustomerID, o.DeliveryAddressID, o.ProductType, o.Quantity,
		string(o.Status), string(o.PaymentStatus), o.PaymentType, o.FinalPrice, o.Details,
		o.OrderDate, o.CreatedBy)
	if err != nil {
		return Order{}, fmt.Errorf("orders: create: %w", err)
	}
	return r.Get(ctx, o.ID)
}

// Save replaces the mutable detail columns of an order.
func (r *Repository) Save(ctx context.Context, o Order) (Order, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET delivery_address_id = NULLIF($2, ''), product_type = $3, quantity = $4,
			bottles_delivered = $5, bottles_returned = $6, payment_type = $7, final_price = $8,
			details = $9, delivery_photo_path = $10, updated_at = NOW()
		WHERE order_id = $1`,
		o.ID, o.DeliveryAddressID, o.ProductType, o.Quantity,
		o.BottlesDelivered, o.BottlesReturned, o.PaymentType, o.FinalPrice,
		o.Details, o.DeliveryPhotoPath)
	if err != nil {
		return Order{}, fmt.Errorf("orders: save: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Order{}, ErrNotFound
	}
	return r.Get(ctx, o.ID)
}

// SetStatus updates the lifecycle status; Despachado stamps delivered_date.
func (r *Repository) SetStatus(ctx context.Context, id string, status Status, deliveredAt *time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET status = $2, delivered_date = COALESCE($3, delivered_date), updated_at = NOW()
		WHERE order_id = $1`, id, string(status), deliveredAt)
	if err != nil {
		return fmt.Errorf("orders: set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPaymentStatus updates the settlement state; Pagado stamps payment_date.
func (r *Repository) SetPaymentStatus(ctx context.Context, id string, status PaymentStatus, paidAt *time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET payment_status = $2, payment_date = COALESCE($3, payment_date), updated_at = NOW()
		WHERE order_id = $1`, id, string(status), paidAt)
	if err != nil {
		return fmt.Errorf("orders: set payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an order.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE order_id = $1`, id)
	if err != nil {
		return fmt.Errorf("orders: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
