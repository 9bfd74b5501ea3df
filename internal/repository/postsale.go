package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketbay/fulfillment/internal/domain/fault"
	"github.com/marketbay/fulfillment/internal/domain/postsale"
)

var (
	_ postsale.ReturnRepository   = (*ReturnRepository)(nil)
	_ postsale.ExchangeRepository = (*ExchangeRepository)(nil)
	_ postsale.OrderReader        = (*PostSaleOrderReader)(nil)
)

// PostSaleOrderReader gives the post-sale engine its narrow view of orders
// and order lines.
type PostSaleOrderReader struct {
	pool *pgxpool.Pool
}

// NewPostSaleOrderReader returns a PostSaleOrderReader using the given pool.
func NewPostSaleOrderReader(pool *pgxpool.Pool) *PostSaleOrderReader {
	return &PostSaleOrderReader{pool: pool}
}

// OrderItem returns one order line, fault.KindNotFound when absent.
func (r *PostSaleOrderReader) OrderItem(ctx context.Context, id string) (*postsale.OrderItemInfo, error) {
	const query = `SELECT id, order_id, product_id, quantity FROM order_items WHERE id = $1`

	var it postsale.OrderItemInfo
	err := r.pool.QueryRow(ctx, query, id).Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("order item not found")
		}
		return nil, fmt.Errorf("getting order item: %w", err)
	}
	return &it, nil
}

// Order returns the order slice the window check needs. The delivery date is
// scanned untyped and normalized by the domain layer.
func (r *PostSaleOrderReader) Order(ctx context.Context, id string) (*postsale.OrderInfo, error) {
	const query = `SELECT id, user_id, delivery_date FROM orders WHERE id = $1`

	var o postsale.OrderInfo
	err := r.pool.QueryRow(ctx, query, id).Scan(&o.ID, &o.UserID, &o.DeliveryDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("order not found")
		}
		return nil, fmt.Errorf("getting order: %w", err)
	}
	return &o, nil
}

// postSaleFilter renders the shared filter set into a WHERE clause.
func postSaleFilter(f postsale.Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(col, v string) {
		if v == "" {
			return
		}
		args = append(args, v)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("user_id", f.UserID)
	add("order_id", f.OrderID)
	add("product_id", f.ProductID)
	add("status_id", f.StatusID)

	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// ReturnRepository implements postsale.ReturnRepository backed by PostgreSQL.
type ReturnRepository struct {
	pool *pgxpool.Pool
}

// NewReturnRepository returns a ReturnRepository using the given pool.
func NewReturnRepository(pool *pgxpool.Pool) *ReturnRepository {
	return &ReturnRepository{pool: pool}
}

const returnColumns = `id, order_id, product_id, status_id, user_id,
	COALESCE(reason, ''), COALESCE(image_url, ''), quantity, amount, created_at, updated_at`

func scanReturn(row pgx.CollectableRow) (postsale.Return, error) {
	var ret postsale.Return
	err := row.Scan(
		&ret.ID, &ret.OrderID, &ret.ProductID, &ret.StatusID, &ret.UserID,
		&ret.Reason, &ret.ImageURL, &ret.Quantity, &ret.Amount,
		&ret.CreatedAt, &ret.UpdatedAt,
	)
	return ret, err
}

func (r *ReturnRepository) Create(ctx context.Context, ret *postsale.Return) error {
	const query = `INSERT INTO returns (id, order_id, product_id, status_id, user_id,
			reason, image_url, quantity, amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		ret.ID, ret.OrderID, ret.ProductID, ret.StatusID, ret.UserID,
		ret.Reason, ret.ImageURL, ret.Quantity, ret.Amount,
		ret.CreatedAt, ret.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting return: %w", err)
	}
	return nil
}

func (r *ReturnRepository) GetByID(ctx context.Context, id string) (*postsale.Return, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+returnColumns+` FROM returns WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting return: %w", err)
	}
	ret, err := pgx.CollectExactlyOneRow(rows, scanReturn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("return not found")
		}
		return nil, fmt.Errorf("scanning return: %w", err)
	}
	return &ret, nil
}

func (r *ReturnRepository) List(ctx context.Context, f postsale.Filter, page postsale.Page) ([]postsale.Return, error) {
	clause, args := postSaleFilter(f)
	query := fmt.Sprintf(`SELECT %s FROM returns%s ORDER BY created_at DESC OFFSET $%d LIMIT $%d`,
		returnColumns, clause, len(args)+1, len(args)+2)
	args = append(args, page.Skip, page.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing returns: %w", err)
	}
	list, err := pgx.CollectRows(rows, scanReturn)
	if err != nil {
		return nil, fmt.Errorf("scanning returns: %w", err)
	}
	return list, nil
}

// ReturnedQuantity sums quantities across every return for the (order,
// product) pair, feeding the cumulative cap.
func (r *ReturnRepository) ReturnedQuantity(ctx context.Context, orderID, productID string) (int, error) {
	const query = `SELECT COALESCE(SUM(quantity), 0) FROM returns
		WHERE order_id = $1 AND product_id = $2`

	var total int
	if err := r.pool.QueryRow(ctx, query, orderID, productID).Scan(&total); err != nil {
		return 0, fmt.Errorf("summing returned quantity: %w", err)
	}
	return total, nil
}

func (r *ReturnRepository) UpdateStatus(ctx context.Context, id, statusID string) (*postsale.Return, error) {
	query := `UPDATE returns SET status_id = $1, updated_at = now()
		WHERE id = $2 RETURNING ` + returnColumns

	rows, err := r.pool.Query(ctx, query, statusID, id)
	if err != nil {
		return nil, fmt.Errorf("updating return status: %w", err)
	}
	ret, err := pgx.CollectExactlyOneRow(rows, scanReturn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("return not found")
		}
		return nil, fmt.Errorf("scanning updated return: %w", err)
	}
	return &ret, nil
}

func (r *ReturnRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM returns WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting return: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ExchangeRepository implements postsale.ExchangeRepository backed by
// PostgreSQL.
type ExchangeRepository struct {
	pool *pgxpool.Pool
}

// NewExchangeRepository returns an ExchangeRepository using the given pool.
func NewExchangeRepository(pool *pgxpool.Pool) *ExchangeRepository {
	return &ExchangeRepository{pool: pool}
}

const exchangeColumns = `id, order_id, product_id, status_id, user_id,
	COALESCE(reason, ''), COALESCE(image_url, ''), new_quantity, COALESCE(new_size, ''),
	created_at, updated_at`

func scanExchange(row pgx.CollectableRow) (postsale.Exchange, error) {
	var ex postsale.Exchange
	err := row.Scan(
		&ex.ID, &ex.OrderID, &ex.ProductID, &ex.StatusID, &ex.UserID,
		&ex.Reason, &ex.ImageURL, &ex.NewQuantity, &ex.NewSize,
		&ex.CreatedAt, &ex.UpdatedAt,
	)
	return ex, err
}

func (r *ExchangeRepository) Create(ctx context.Context, ex *postsale.Exchange) error {
	const query = `INSERT INTO exchanges (id, order_id, product_id, status_id, user_id,
			reason, image_url, new_quantity, new_size, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, NULLIF($9, ''), $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		ex.ID, ex.OrderID, ex.ProductID, ex.StatusID, ex.UserID,
		ex.Reason, ex.ImageURL, ex.NewQuantity, ex.NewSize,
		ex.CreatedAt, ex.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting exchange: %w", err)
	}
	return nil
}

func (r *ExchangeRepository) GetByID(ctx context.Context, id string) (*postsale.Exchange, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+exchangeColumns+` FROM exchanges WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting exchange: %w", err)
	}
	ex, err := pgx.CollectExactlyOneRow(rows, scanExchange)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("exchange not found")
		}
		return nil, fmt.Errorf("scanning exchange: %w", err)
	}
	return &ex, nil
}

func (r *ExchangeRepository) List(ctx context.Context, f postsale.Filter, page postsale.Page) ([]postsale.Exchange, error) {
	clause, args := postSaleFilter(f)
	query := fmt.Sprintf(`SELECT %s FROM exchanges%s ORDER BY created_at DESC OFFSET $%d LIMIT $%d`,
		exchangeColumns, clause, len(args)+1, len(args)+2)
	args = append(args, page.Skip, page.Limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing exchanges: %w", err)
	}
	list, err := pgx.CollectRows(rows, scanExchange)
	if err != nil {
		return nil, fmt.Errorf("scanning exchanges: %w", err)
	}
	return list, nil
}

func (r *ExchangeRepository) UpdateStatus(ctx context.Context, id, statusID string) (*postsale.Exchange, error) {
	query := `UPDATE exchanges SET status_id = $1, updated_at = now()
		WHERE id = $2 RETURNING ` + exchangeColumns

	rows, err := r.pool.Query(ctx, query, statusID, id)
	if err != nil {
		return nil, fmt.Errorf("updating exchange status: %w", err)
	}
	ex, err := pgx.CollectExactlyOneRow(rows, scanExchange)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("exchange not found")
		}
		return nil, fmt.Errorf("scanning updated exchange: %w", err)
	}
	return &ex, nil
}

func (r *ExchangeRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exchanges WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting exchange: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
