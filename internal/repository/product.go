package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketbay/fulfillment/internal/domain/catalog"
	"github.com/marketbay/fulfillment/internal/domain/fault"
)

var _ catalog.Repository = (*ProductRepository)(nil)

// ProductRepository implements catalog.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetByID returns a single product, fault.KindNotFound when absent.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	const query = `SELECT id, name, price, quantity, out_of_stock FROM products WHERE id = $1`

	var p catalog.Product
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.OutOfStock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("product not found")
		}
		return nil, fmt.Errorf("getting product: %w", err)
	}
	return &p, nil
}
