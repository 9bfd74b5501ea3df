package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketbay/fulfillment/internal/domain/address"
	"github.com/marketbay/fulfillment/internal/domain/fault"
)

var _ address.Repository = (*AddressRepository)(nil)

// AddressRepository implements address.Repository backed by PostgreSQL.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// Get returns the address snapshot only when the row belongs to the given
// user. Ownership is part of the WHERE clause so a foreign address is
// indistinguishable from a missing one.
func (r *AddressRepository) Get(ctx context.Context, id, userID string) (*address.Snapshot, error) {
	const query = `SELECT mobile_no, postal_code, country, state, city, street
		FROM user_addresses WHERE id = $1 AND user_id = $2`

	var s address.Snapshot
	err := r.pool.QueryRow(ctx, query, id, userID).
		Scan(&s.MobileNo, &s.PostalCode, &s.Country, &s.State, &s.City, &s.Street)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("address not found")
		}
		return nil, fmt.Errorf("getting address: %w", err)
	}
	return &s, nil
}
