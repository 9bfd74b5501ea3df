package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketbay/fulfillment/internal/domain/cart"
	"github.com/marketbay/fulfillment/internal/domain/fault"
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// GetByUser returns the user's cart, fault.KindNotFound when absent.
func (r *CartRepository) GetByUser(ctx context.Context, userID string) (*cart.Cart, error) {
	const query = `SELECT id, user_id FROM carts WHERE user_id = $1`

	var c cart.Cart
	err := r.pool.QueryRow(ctx, query, userID).Scan(&c.ID, &c.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("cart not found")
		}
		return nil, fmt.Errorf("getting cart: %w", err)
	}
	return &c, nil
}

// Items returns all lines in the cart, possibly empty.
func (r *CartRepository) Items(ctx context.Context, cartID string) ([]cart.Item, error) {
	const query = `SELECT id, cart_id, product_id, quantity, COALESCE(size, '')
		FROM cart_items WHERE cart_id = $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("listing cart items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Item, error) {
		var it cart.Item
		err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.Size)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning cart items: %w", err)
	}
	return items, nil
}
