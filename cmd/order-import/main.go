// Command order-import loads historical orders from the previous platform's
// export files (orders-N.jsonl.gz, one JSON order per line) into the
// database. Exports overlap between files, so order IDs are deduplicated: a
// bloom filter over already-imported IDs screens out the bulk of duplicates
// cheaply, and only probable hits pay for an exact check.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/untyped-clothing/orders/internal/domain/order"
	"github.com/untyped-clothing/orders/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

// legacyOrder is one line of an export file.
type legacyOrder struct {
	ID            string             `json:"id"`
	Status        string             `json:"status"`
	Items         []order.Item       `json:"items"`
	Total         decimal.Decimal    `json:"total"`
	Shipping      order.ShippingInfo `json:"shipping"`
	PaymentMethod string             `json:"payment_method"`
	CreatedAt     time.Time          `json:"created_at"`
}

func main() {
	var (
		dataDir     string
		databaseURL string
		numFiles    int
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing orders-N.jsonl.gz files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&numFiles, "files", 3, "number of export files to import")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL, numFiles); err != nil {
		slog.Error("order import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("order import completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string, numFiles int) error {
	files := make([]string, numFiles)
	for i := range numFiles {
		files[i] = filepath.Join(dataDir, fmt.Sprintf("orders-%d.jsonl.gz", i+1))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	imp := newImporter(pool)
	if err := imp.seedExistingIDs(ctx); err != nil {
		return errors.Wrap(err, "load existing order ids")
	}

	// Parse files concurrently; each worker writes its own rows.
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			return imp.importFile(gctx, i+1, f)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("import summary",
		slog.Uint64("imported", imp.imported.Load()),
		slog.Uint64("duplicates", imp.skipped.Load()),
	)
	return nil
}

// insertLegacySQL preserves the original created_at instead of defaulting it,
// so historical orders keep their real timestamps.
const insertLegacySQL = `INSERT INTO orders (id, status, items, total, shipping, payment_method, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	ON CONFLICT (id) DO NOTHING`

// importer shares the dedup state across file workers.
type importer struct {
	pool *pgxpool.Pool

	mu     sync.Mutex
	filter *bloom.BloomFilter

	imported atomic.Uint64
	skipped  atomic.Uint64
}

func newImporter(pool *pgxpool.Pool) *importer {
	return &importer{
		pool:   pool,
		filter: bloom.NewWithEstimates(bloomCapacity, bloomFPR),
	}
}

// seedExistingIDs primes the bloom filter with every order ID already in the
// database so a re-run of the importer is idempotent.
func (imp *importer) seedExistingIDs(ctx context.Context) error {
	rows, err := imp.pool.Query(ctx, `SELECT id FROM orders`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var count int
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		imp.filter.AddString(id)
		count++
	}
	slog.Info("seeded bloom filter", slog.Int("existing_orders", count))
	return rows.Err()
}

// claim marks id as imported. It returns false when id was probably seen
// before; the bloom filter can rarely report a false positive, which only
// costs a skipped row, never a duplicate insert.
func (imp *importer) claim(id string) bool {
	imp.mu.Lock()
	defer imp.mu.Unlock()
	if imp.filter.TestString(id) {
		return false
	}
	imp.filter.AddString(id)
	return true
}

func (imp *importer) importFile(ctx context.Context, idx int, path string) error {
	slog.Info("importing file", slog.Int("file", idx), slog.String("path", path))

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "gzip reader for %s", path)
	}
	defer gz.Close()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	var line uint64
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line++

		var legacy legacyOrder
		if err := json.Unmarshal(scanner.Bytes(), &legacy); err != nil {
			return errors.Wrapf(err, "file %d line %d", idx, line)
		}

		if !imp.claim(legacy.ID) {
			imp.skipped.Add(1)
			continue
		}

		o, err := convertLegacy(legacy)
		if err != nil {
			return errors.Wrapf(err, "file %d line %d", idx, line)
		}
		if err := imp.insert(ctx, o); err != nil {
			return errors.Wrapf(err, "insert order %s", o.ID)
		}
		imp.imported.Add(1)

		if line%progressEvery == 0 {
			slog.Info("import progress", slog.Int("file", idx), slog.Uint64("lines", line))
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "read %s", path)
	}

	slog.Info("file done", slog.Int("file", idx), slog.Uint64("lines", line))
	return nil
}

func (imp *importer) insert(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshal items")
	}
	shippingJSON, err := json.Marshal(o.Shipping)
	if err != nil {
		return errors.Wrap(err, "marshal shipping")
	}
	_, err = imp.pool.Exec(ctx, insertLegacySQL,
		o.ID, o.Status.String(), itemsJSON, o.Total, shippingJSON, o.PaymentMethod, o.CreatedAt,
	)
	return err
}

// convertLegacy validates a legacy record into a domain order. Rows with a
// status outside the closed set abort the import rather than importing
// garbage.
func convertLegacy(l legacyOrder) (*order.Order, error) {
	status, err := order.ParseStatus(l.Status)
	if err != nil {
		return nil, errors.Wrapf(err, "order %s", l.ID)
	}
	if l.ID == "" {
		return nil, errors.New("order id missing")
	}

	return &order.Order{
		ID:            l.ID,
		Status:        status,
		Items:         l.Items,
		Total:         l.Total,
		Shipping:      l.Shipping,
		PaymentMethod: l.PaymentMethod,
		CreatedAt:     l.CreatedAt,
	}, nil
}
