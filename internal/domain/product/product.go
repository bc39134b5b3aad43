package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog item: one apparel style in a fixed set of sizes and
// colorways.
type Product struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Category string
	Sizes    []string
	Colors   []string
	Image    Image
}

// Image holds responsive image URLs for a product.
type Image struct {
	Thumbnail string
	Mobile    string
	Desktop   string
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
