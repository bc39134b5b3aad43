package order

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/untyped-clothing/orders/internal/domain/product"
)

// ErrEmptyItems rejects checkout requests without any line items.
var ErrEmptyItems = fmt.Errorf("items required")

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	Items         []ItemRequest
	Shipping      ShippingInfo
	PaymentMethod string
}

// ItemRequest is one requested line at checkout.
type ItemRequest struct {
	ProductID string
	Size      string
	Color     string
	Quantity  int
}

// Service encapsulates checkout and lifecycle business logic.
type Service struct {
	products product.Repository
	orders   Repository
}

// NewService creates an order Service with the required domain dependencies.
func NewService(products product.Repository, orders Repository) *Service {
	return &Service{
		products: products,
		orders:   orders,
	}
}

// PlaceOrder validates items, fetches products in a single batch, snapshots
// names and prices into the order, and persists it with status pending.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	// Validate quantities and collect product IDs.
	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	// Batch fetch all products in a single query.
	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}

	productMap := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		productMap[p.ID] = p
	}

	// Build order lines, verifying every requested product was found.
	items := make([]Item, len(req.Items))
	total := decimal.Zero
	for i, item := range req.Items {
		p, ok := productMap[item.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}

		items[i] = Item{
			ProductID: p.ID,
			Name:      p.Name,
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  item.Quantity,
			UnitPrice: p.Price,
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		total = total.Add(p.Price.Mul(qty))
	}
	total = total.Round(2)

	o := &Order{
		ID:            uuid.New().String(),
		Status:        StatusPending,
		Items:         items,
		Total:         total,
		Shipping:      req.Shipping,
		PaymentMethod: req.PaymentMethod,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	return o, nil
}

// GetOrder returns a single order by ID.
func (s *Service) GetOrder(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// ListOrders returns all orders, most recent first.
func (s *Service) ListOrders(ctx context.Context) ([]Order, error) {
	return s.orders.List(ctx)
}

// UpdateStatus moves an order to requested after checking the lifecycle
// rules against its stored status. The persisted update is guarded by the
// status the decision was made against, so two concurrent updates cannot
// both win.
func (s *Service) UpdateStatus(ctx context.Context, id string, requested Status) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanTransition(o.Status, requested) {
		return nil, &InvalidTransitionError{From: o.Status, To: requested}
	}

	if err := s.orders.UpdateStatus(ctx, id, o.Status, requested); err != nil {
		return nil, err
	}

	o.Status = requested
	return o, nil
}
