// Command seed-db runs migrations and seeds the reference-data sets plus an
// optional demo catalog. Seeding is idempotent: existing rows are left alone.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/marketbay/fulfillment/internal/domain/refdata"
	"github.com/marketbay/fulfillment/internal/repository"
)

type productJSON struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "", "optional path to demo products JSON file")
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

	if err := run(ctx, databaseURL, productsFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedRefValues(ctx, pool); err != nil {
		return errors.Wrap(err, "seed reference data")
	}

	if productsFile != "" {
		if err := seedProducts(ctx, pool, productsFile); err != nil {
			return errors.Wrap(err, "seed products")
		}
	}

	return nil
}

// refSeed lists every (set, label) pair the engine resolves at runtime.
// A missing pair surfaces as a configuration fault on first use.
var refSeed = map[string][]string{
	refdata.SetOrderStatus: {
		refdata.OrderPlaced,
		refdata.OrderConfirmed,
		refdata.OrderPacked,
		refdata.OrderOutForDelivery,
		refdata.OrderDelivered,
		refdata.OrderCancelled,
	},
	refdata.SetReturnStatus:   {refdata.PostSaleApproved},
	refdata.SetExchangeStatus: {refdata.PostSaleApproved},
	refdata.SetPaymentStatus:  {refdata.PaymentPending, refdata.PaymentSuccess},
	refdata.SetPaymentType:    {refdata.PayTypeCOD, refdata.PayTypeCard, refdata.PayTypeUPI},
}

func seedRefValues(ctx context.Context, pool *pgxpool.Pool) error {
	const insert = `INSERT INTO ref_values (id, set_name, label)
		VALUES ($1, $2, $3) ON CONFLICT (set_name, label) DO NOTHING`

	count := 0
	for set, labels := range refSeed {
		for _, label := range labels {
			tag, err := pool.Exec(ctx, insert, uuid.New().String(), set, label)
			if err != nil {
				return errors.Wrapf(err, "insert %s/%s", set, label)
			}
			count += int(tag.RowsAffected())
		}
	}
	slog.Info("seeded reference values", slog.Int("inserted", count))
	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	const insert = `INSERT INTO products (id, name, price, quantity, out_of_stock)
		VALUES ($1, $2, $3, $4, $5)`

	for _, p := range products {
		err := pool.QueryRow(ctx, `SELECT id FROM products WHERE name = $1`, p.Name).Scan(new(string))
		if err == nil {
			continue
		}
		_, err = pool.Exec(ctx, insert, uuid.New().String(), p.Name, p.Price, p.Quantity, p.Quantity == 0)
		if err != nil {
			return errors.Wrapf(err, "insert product %q", p.Name)
		}
	}
	slog.Info("seeded products", slog.Int("count", len(products)))
	return nil
}
