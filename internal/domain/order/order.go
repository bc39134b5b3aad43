package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Order is a customer's placed purchase record, tracked through fulfillment.
type Order struct {
	ID            string
	Status        Status
	Items         []Item
	Total         decimal.Decimal
	Shipping      ShippingInfo
	PaymentMethod string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Item is a single line in an order. Name and UnitPrice are captured at
// checkout time so later catalog edits do not rewrite order history.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// ShippingInfo holds the delivery destination for an order.
type ShippingInfo struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

// StaleStatusError indicates a status update lost a race: the order's stored
// status no longer matches the status the transition was decided against.
type StaleStatusError struct {
	OrderID  string
	Expected Status
}

func (e *StaleStatusError) Error() string {
	return fmt.Sprintf("order %s is no longer in status %s", e.OrderID, e.Expected)
}

// InvalidTransitionError indicates a requested status change the lifecycle
// rules do not permit.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transition %s -> %s is not allowed", e.From, e.To)
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	// UpdateStatus persists next only while the stored status still equals
	// current. It returns a StaleStatusError when the guard fails.
	UpdateStatus(ctx context.Context, id string, current, next Status) error
}
