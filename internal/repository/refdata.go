package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketbay/fulfillment/internal/domain/fault"
	"github.com/marketbay/fulfillment/internal/domain/refdata"
)

const (
	findRefByLabelSQL = `SELECT id, set_name, label FROM ref_values WHERE set_name = $1 AND label = $2`
	findRefByIDSQL    = `SELECT id, set_name, label FROM ref_values WHERE set_name = $1 AND id = $2`
)

var _ refdata.Repository = (*RefDataRepository)(nil)

// RefDataRepository implements refdata.Repository backed by PostgreSQL.
type RefDataRepository struct {
	pool *pgxpool.Pool
}

// NewRefDataRepository returns a RefDataRepository that uses the given pool.
func NewRefDataRepository(pool *pgxpool.Pool) *RefDataRepository {
	return &RefDataRepository{pool: pool}
}

// FindByLabel resolves (set, label). A missing label means the deployment's
// seed data is incomplete, hence a configuration fault.
func (r *RefDataRepository) FindByLabel(ctx context.Context, set, label string) (*refdata.Value, error) {
	v, err := r.queryOne(ctx, findRefByLabelSQL, set, label)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.Configuration("reference %s/%s is not seeded", set, label)
		}
		return nil, fmt.Errorf("finding reference %s/%s: %w", set, label, err)
	}
	return v, nil
}

// FindByID resolves (set, id).
func (r *RefDataRepository) FindByID(ctx context.Context, set, id string) (*refdata.Value, error) {
	v, err := r.queryOne(ctx, findRefByIDSQL, set, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("unknown %s", set)
		}
		return nil, fmt.Errorf("finding reference %s by id: %w", set, err)
	}
	return v, nil
}

func (r *RefDataRepository) queryOne(ctx context.Context, sql string, args ...any) (*refdata.Value, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	v, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (refdata.Value, error) {
		var val refdata.Value
		err := row.Scan(&val.ID, &val.Set, &val.Label)
		return val, err
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}
