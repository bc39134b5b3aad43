// Command seed-db loads the apparel catalog, a demo order set, and an admin
// token into the database. Intended for local development and test
// environments.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/untyped-clothing/orders/internal/domain/auth"
	"github.com/untyped-clothing/orders/internal/domain/order"
	"github.com/untyped-clothing/orders/internal/domain/product"
	"github.com/untyped-clothing/orders/internal/storage/postgres"
)

type productJSON struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	Sizes    []string        `json:"sizes"`
	Colors   []string        `json:"colors"`
	Image    struct {
		Thumbnail string `json:"thumbnail"`
		Mobile    string `json:"mobile"`
		Desktop   string `json:"desktop"`
	} `json:"image"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		adminToken   string
		tokenPepper  string
		demoOrders   bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&adminToken, "admin-token", "", "admin token to seed (or UNTYPED_SEED_ADMIN_TOKEN env)")
	flag.StringVar(&tokenPepper, "admin-token-pepper", "", "HMAC pepper for token hashing (or UNTYPED_ADMIN_TOKEN_PEPPER env)")
	flag.BoolVar(&demoOrders, "demo-orders", false, "also create a handful of demo orders")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminToken == "" {
		adminToken = os.Getenv("UNTYPED_SEED_ADMIN_TOKEN")
	}
	if adminToken == "" {
		slog.Error("admin token is required: set --admin-token or UNTYPED_SEED_ADMIN_TOKEN")
		os.Exit(1)
	}
	if tokenPepper == "" {
		tokenPepper = os.Getenv("UNTYPED_ADMIN_TOKEN_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, adminToken, tokenPepper, demoOrders); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, adminToken, pepper string, demoOrders bool) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, postgres.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedAdminToken(ctx, postgres.NewTokenRepository(pool), adminToken, pepper); err != nil {
		return errors.Wrap(err, "seed admin token")
	}

	if demoOrders {
		if err := seedDemoOrders(ctx, pool); err != nil {
			return errors.Wrap(err, "seed demo orders")
		}
	}

	return nil
}

func seedProducts(ctx context.Context, repo *postgres.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		err := repo.Upsert(ctx, &product.Product{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Category: p.Category,
			Sizes:    p.Sizes,
			Colors:   p.Colors,
			Image: product.Image{
				Thumbnail: p.Image.Thumbnail,
				Mobile:    p.Image.Mobile,
				Desktop:   p.Image.Desktop,
			},
		})
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedAdminToken(ctx context.Context, repo *postgres.TokenRepository, token, pepper string) error {
	slog.Info("seeding default admin token")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(token))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	err := repo.Upsert(ctx, &auth.TokenInfo{
		ID:      "default",
		KeyHash: keyHash,
		Name:    "Default back-office token",
		Role:    auth.RoleAdmin,
	})
	if err != nil {
		return errors.Wrap(err, "upsert default admin token")
	}

	slog.Info("upserted admin token", slog.String("id", "default"))
	return nil
}

// seedDemoOrders creates a small order set covering each lifecycle status so
// the back office has something to show on a fresh database.
func seedDemoOrders(ctx context.Context, pool *pgxpool.Pool) error {
	repo := postgres.NewOrderRepository(pool)
	products := postgres.NewProductRepository(pool)

	catalog, err := products.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list products")
	}
	if len(catalog) == 0 {
		return errors.New("no products to build demo orders from")
	}

	statuses := []order.Status{
		order.StatusPending,
		order.StatusProcessing,
		order.StatusShipped,
		order.StatusDelivered,
		order.StatusCancelled,
	}

	for i, status := range statuses {
		p := catalog[i%len(catalog)]
		size, color := "M", "black"
		if len(p.Sizes) > 0 {
			size = p.Sizes[0]
		}
		if len(p.Colors) > 0 {
			color = p.Colors[0]
		}

		o := &order.Order{
			ID:     uuid.New().String(),
			Status: order.StatusPending,
			Items: []order.Item{{
				ProductID: p.ID,
				Name:      p.Name,
				Size:      size,
				Color:     color,
				Quantity:  1,
				UnitPrice: p.Price,
			}},
			Total: p.Price.Round(2),
			Shipping: order.ShippingInfo{
				Name:       "Demo Customer",
				Phone:      "+1 555 0100",
				Address:    "1 Demo Street",
				City:       "Springfield",
				PostalCode: "00100",
			},
			PaymentMethod: "card",
		}
		if err := repo.Create(ctx, o); err != nil {
			return errors.Wrapf(err, "create demo order %s", o.ID)
		}

		// Walk the order forward along the ladder to its target status.
		if err := advanceTo(ctx, repo, o.ID, status); err != nil {
			return errors.Wrapf(err, "advance demo order %s", o.ID)
		}

		slog.Info("created demo order", slog.String("id", o.ID), slog.String("status", status.String()))
	}

	return nil
}

// advanceTo moves a fresh pending order to target through allowed
// transitions only.
func advanceTo(ctx context.Context, repo *postgres.OrderRepository, id string, target order.Status) error {
	current := order.StatusPending
	if current == target {
		return nil
	}
	if target == order.StatusCancelled {
		return repo.UpdateStatus(ctx, id, current, order.StatusCancelled)
	}

	for _, step := range order.StatusOrder() {
		if step == order.StatusPending {
			continue
		}
		if !order.CanTransition(current, step) {
			return errors.Errorf("cannot advance %s -> %s", current, step)
		}
		if err := repo.UpdateStatus(ctx, id, current, step); err != nil {
			return err
		}
		current = step
		if current == target {
			return nil
		}
	}
	return errors.Errorf("target status %s not reached", target)
}
