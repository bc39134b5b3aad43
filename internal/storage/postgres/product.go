package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/untyped-clothing/orders/internal/domain/product"
)

const (
	listProductsSQL = `SELECT id, name, price, category, sizes, colors,
	image_thumbnail, image_mobile, image_desktop
	FROM products ORDER BY id`

	getProductSQL = `SELECT id, name, price, category, sizes, colors,
	image_thumbnail, image_mobile, image_desktop
	FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT id, name, price, category, sizes, colors,
	image_thumbnail, image_mobile, image_desktop
	FROM products WHERE id = ANY($1)`

	upsertProductSQL = `INSERT INTO products
	(id, name, price, category, sizes, colors, image_thumbnail, image_mobile, image_desktop)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name, price = EXCLUDED.price, category = EXCLUDED.category,
	sizes = EXCLUDED.sizes, colors = EXCLUDED.colors,
	image_thumbnail = EXCLUDED.image_thumbnail,
	image_mobile = EXCLUDED.image_mobile,
	image_desktop = EXCLUDED.image_desktop`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products from the catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	row := r.pool.QueryRow(ctx, getProductSQL, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return p, nil
}

// GetByIDs returns the products matching ids in a single query. Missing IDs
// are simply absent from the result; the caller decides whether that is an
// error.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// Upsert inserts or replaces a catalog row. Used by the seed tool.
func (r *ProductRepository) Upsert(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, upsertProductSQL,
		p.ID, p.Name, p.Price, p.Category, p.Sizes, p.Colors,
		p.Image.Thumbnail, p.Image.Mobile, p.Image.Desktop,
	)
	if err != nil {
		return fmt.Errorf("upserting product %q: %w", p.ID, err)
	}
	return nil
}

func collectProducts(rows pgx.Rows) ([]product.Product, error) {
	var out []product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading products: %w", err)
	}
	return out, nil
}

func scanProduct(row pgx.Row) (*product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Category, &p.Sizes, &p.Colors,
		&p.Image.Thumbnail, &p.Image.Mobile, &p.Image.Desktop)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
