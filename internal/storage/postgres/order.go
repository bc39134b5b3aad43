package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/untyped-clothing/orders/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, status, items, total, shipping, payment_method)
	VALUES ($1, $2, $3, $4, $5, $6)`

	getOrderSQL = `SELECT id, status, items, total, shipping, payment_method, created_at, updated_at
	FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT id, status, items, total, shipping, payment_method, created_at, updated_at
	FROM orders ORDER BY created_at DESC`

	// The status guard makes concurrent updates race-safe: only the update
	// whose expected current status still holds writes anything.
	updateOrderStatusSQL = `UPDATE orders SET status = $3, updated_at = now()
	WHERE id = $1 AND status = $2`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. Items and shipping are serialized to JSON for
// storage in JSONB columns.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}
	shippingJSON, err := json.Marshal(o.Shipping)
	if err != nil {
		return fmt.Errorf("marshaling shipping info: %w", err)
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.Status.String(), itemsJSON, o.Total, shippingJSON, o.PaymentMethod,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	return nil
}

// GetByID returns a single order. It returns order.ErrNotFound when no row
// matches.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	row := r.pool.QueryRow(ctx, getOrderSQL, id)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return o, nil
}

// List returns all orders, most recent first.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return out, nil
}

// UpdateStatus persists next for the order only while its stored status still
// equals current. A zero-row update means the guard failed and surfaces as a
// StaleStatusError.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, current, next order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, current.String(), next.String())
	if err != nil {
		return fmt.Errorf("updating order %q status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &order.StaleStatusError{OrderID: id, Expected: current}
	}
	return nil
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o            order.Order
		rawStatus    string
		itemsJSON    []byte
		total        decimal.Decimal
		shippingJSON []byte
	)
	err := row.Scan(&o.ID, &rawStatus, &itemsJSON, &total, &shippingJSON, &o.PaymentMethod, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	status, err := order.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	o.Status = status
	o.Total = total

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshaling order items: %w", err)
	}
	if err := json.Unmarshal(shippingJSON, &o.Shipping); err != nil {
		return nil, fmt.Errorf("unmarshaling shipping info: %w", err)
	}
	return &o, nil
}
