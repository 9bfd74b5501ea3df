package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/marketbay/fulfillment/internal/domain/fault"
	"github.com/marketbay/fulfillment/internal/domain/order"
)

const orderColumns = `id, user_id, status_id, total, delivery_date, delivery_otp,
	addr_mobile_no, addr_postal_code, addr_country, addr_state, addr_city, addr_street,
	created_at, updated_at`

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// InTx runs fn inside one repeatable-read transaction. Serialization
// conflicts surface as fault.KindConflict via mapTxErr.
func (r *OrderRepository) InTx(ctx context.Context, fn func(tx order.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(&orderTx{tx: tx}); err != nil {
		return mapTxErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapTxErr(fmt.Errorf("committing transaction: %w", err))
	}
	return nil
}

// orderTx is the write set of the placement transaction.
type orderTx struct {
	tx pgx.Tx
}

// Reserve decrements stock with a single conditional update so two
// concurrent placements can never both take the last unit. The out-of-stock
// flag flip is a second guarded update in the same transaction.
func (t *orderTx) Reserve(ctx context.Context, productID string, qty int) (price decimal.Decimal, err error) {
	const reserve = `UPDATE products
		SET quantity = quantity - $2, updated_at = now()
		WHERE id = $1 AND quantity >= $2
		RETURNING price, quantity`

	var remaining int
	err = t.tx.QueryRow(ctx, reserve, productID, qty).Scan(&price, &remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return price, fault.InsufficientStock("insufficient stock for product %s", productID)
		}
		return price, fmt.Errorf("reserving stock: %w", err)
	}

	if remaining == 0 {
		const flagOut = `UPDATE products SET out_of_stock = TRUE, updated_at = now()
			WHERE id = $1 AND out_of_stock = FALSE`
		if _, err := t.tx.Exec(ctx, flagOut, productID); err != nil {
			return price, fmt.Errorf("flagging out of stock: %w", err)
		}
	}
	return price, nil
}

func (t *orderTx) InsertOrder(ctx context.Context, o *order.Order) error {
	const query = `INSERT INTO orders (id, user_id, status_id, total, delivery_date, delivery_otp,
			addr_mobile_no, addr_postal_code, addr_country, addr_state, addr_city, addr_street,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := t.tx.Exec(ctx, query,
		o.ID, o.UserID, o.StatusID, o.Total, o.DeliveryDate, o.DeliveryOTP,
		o.Address.MobileNo, o.Address.PostalCode, o.Address.Country,
		o.Address.State, o.Address.City, o.Address.Street,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	return nil
}

func (t *orderTx) InsertItems(ctx context.Context, items []order.Item) error {
	batch := &pgx.Batch{}
	const query = `INSERT INTO order_items (id, order_id, user_id, product_id, quantity, size)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))`
	for _, it := range items {
		batch.Queue(query, it.ID, it.OrderID, it.UserID, it.ProductID, it.Quantity, it.Size)
	}
	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting order items: %w", err)
	}
	return nil
}

func (t *orderTx) InsertPayment(ctx context.Context, p *order.Payment) error {
	const query = `INSERT INTO payments (id, order_id, user_id, payment_type_id, payment_status_id,
			invoice_no, delivery_fee, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := t.tx.Exec(ctx, query,
		p.ID, p.OrderID, p.UserID, p.PaymentTypeID, p.PaymentStatusID,
		p.InvoiceNo, p.DeliveryFee, p.Amount,
	)
	if err != nil {
		return fmt.Errorf("inserting payment: %w", err)
	}
	return nil
}

func (t *orderTx) InsertCardDetail(ctx context.Context, paymentID, name, encryptedNo string) error {
	const query = `INSERT INTO card_details (id, payment_id, name, card_no_enc)
		VALUES (gen_random_uuid(), $1, $2, $3)`
	if _, err := t.tx.Exec(ctx, query, paymentID, name, encryptedNo); err != nil {
		return fmt.Errorf("inserting card detail: %w", err)
	}
	return nil
}

func (t *orderTx) InsertUpiDetail(ctx context.Context, paymentID, handle string) error {
	const query = `INSERT INTO upi_details (id, payment_id, upi_id)
		VALUES (gen_random_uuid(), $1, $2)`
	if _, err := t.tx.Exec(ctx, query, paymentID, handle); err != nil {
		return fmt.Errorf("inserting upi detail: %w", err)
	}
	return nil
}

func (t *orderTx) ClearCart(ctx context.Context, cartID string) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}

// GetByID returns one order, fault.KindNotFound when absent.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("order not found")
		}
		return nil, fmt.Errorf("scanning order: %w", err)
	}
	return &o, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string, page order.Page) ([]order.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC OFFSET $2 LIMIT $3`

	rows, err := r.pool.Query(ctx, query, userID, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	list, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("scanning orders: %w", err)
	}
	return list, nil
}

// sortColumns whitelists admin sort fields; anything else falls back to the
// default ordering.
var sortColumns = map[string]string{
	"created_at":    "o.created_at",
	"total":         "o.total",
	"delivery_date": "o.delivery_date",
}

// List applies the admin filter set. The search term matches invoice number
// and the address mobile number via a left join on payments.
func (r *OrderRepository) List(ctx context.Context, f order.ListFilter) ([]order.Order, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.UserID != "" {
		where = append(where, "o.user_id = "+arg(f.UserID))
	}
	if f.StatusID != "" {
		where = append(where, "o.status_id = "+arg(f.StatusID))
	}
	if f.PaymentTypeID != "" {
		where = append(where, "p.payment_type_id = "+arg(f.PaymentTypeID))
	}
	if f.CreatedFrom != nil {
		where = append(where, "o.created_at >= "+arg(startOfDayUTC(*f.CreatedFrom)))
	}
	if f.CreatedTo != nil {
		where = append(where, "o.created_at < "+arg(startOfDayUTC(*f.CreatedTo).AddDate(0, 0, 1)))
	}
	if f.DeliveryFrom != nil {
		where = append(where, "o.delivery_date >= "+arg(startOfDayUTC(*f.DeliveryFrom)))
	}
	if f.DeliveryTo != nil {
		where = append(where, "o.delivery_date <= "+arg(startOfDayUTC(*f.DeliveryTo)))
	}
	if f.MinTotal != nil {
		where = append(where, "o.total >= "+arg(*f.MinTotal))
	}
	if f.MaxTotal != nil {
		where = append(where, "o.total <= "+arg(*f.MaxTotal))
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		where = append(where, fmt.Sprintf("(p.invoice_no ILIKE %s OR o.addr_mobile_no ILIKE %s)",
			arg(pattern), arg(pattern)))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT o.id, o.user_id, o.status_id, o.total, o.delivery_date, o.delivery_otp,
		o.addr_mobile_no, o.addr_postal_code, o.addr_country, o.addr_state, o.addr_city, o.addr_street,
		o.created_at, o.updated_at
		FROM orders o LEFT JOIN payments p ON p.order_id = o.id`)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(orderClause(f.Sort))
	sb.WriteString(" OFFSET " + arg(f.Page.Skip))
	sb.WriteString(" LIMIT " + arg(f.Page.Limit))

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	list, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("scanning orders: %w", err)
	}
	return list, nil
}

func orderClause(sort string) string {
	dir := " ASC"
	if strings.HasPrefix(sort, "-") {
		dir = " DESC"
		sort = sort[1:]
	}
	col, ok := sortColumns[sort]
	if !ok {
		return "o.created_at DESC"
	}
	return col + dir
}

func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CancelOwn is the race-safe cancel guard: one conditional update matching
// id, owner and an eligible status. (nil, nil) means no row matched and the
// caller classifies why.
func (r *OrderRepository) CancelOwn(ctx context.Context, id, userID string, eligible []string, cancelledID string) (*order.Order, error) {
	query := `UPDATE orders SET status_id = $1, updated_at = now()
		WHERE id = $2 AND user_id = $3 AND status_id = ANY($4)
		RETURNING ` + orderColumns

	rows, err := r.pool.Query(ctx, query, cancelledID, id, userID, eligible)
	if err != nil {
		return nil, fmt.Errorf("cancelling order: %w", err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning cancelled order: %w", err)
	}
	return &o, nil
}

// UpdateStatus applies an administrative transition in one update.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, u order.StatusUpdate) (*order.Order, error) {
	set := []string{"status_id = $1", "updated_at = now()"}
	args := []any{u.StatusID, id}

	if u.DeliveryDate != nil {
		args = append(args, *u.DeliveryDate)
		set = append(set, fmt.Sprintf("delivery_date = $%d", len(args)))
	}
	switch {
	case u.OTP != nil:
		args = append(args, *u.OTP)
		set = append(set, fmt.Sprintf("delivery_otp = $%d", len(args)))
	case u.ClearOTP:
		set = append(set, "delivery_otp = NULL")
	}

	query := `UPDATE orders SET ` + strings.Join(set, ", ") +
		` WHERE id = $2 RETURNING ` + orderColumns

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating order status: %w", err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("order not found")
		}
		return nil, fmt.Errorf("scanning updated order: %w", err)
	}
	return &o, nil
}

// DeleteCascade removes the order and all dependent rows in one transaction,
// reporting per-table counts.
func (r *OrderRepository) DeleteCascade(ctx context.Context, id string) (*order.DeleteStats, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var stats order.DeleteStats

	tag, err := tx.Exec(ctx, `DELETE FROM card_details WHERE payment_id IN
		(SELECT id FROM payments WHERE order_id = $1)`, id)
	if err != nil {
		return nil, fmt.Errorf("deleting card details: %w", err)
	}
	stats.CardDetails = tag.RowsAffected()

	tag, err = tx.Exec(ctx, `DELETE FROM upi_details WHERE payment_id IN
		(SELECT id FROM payments WHERE order_id = $1)`, id)
	if err != nil {
		return nil, fmt.Errorf("deleting upi details: %w", err)
	}
	stats.UpiDetails = tag.RowsAffected()

	tag, err = tx.Exec(ctx, `DELETE FROM payments WHERE order_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("deleting payments: %w", err)
	}
	stats.Payments = tag.RowsAffected()

	tag, err = tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("deleting order items: %w", err)
	}
	stats.OrderItems = tag.RowsAffected()

	tag, err = tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("deleting order: %w", err)
	}
	stats.Orders = tag.RowsAffected()

	if stats.Orders == 0 {
		return nil, fault.NotFound("order not found")
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing delete: %w", err)
	}
	return &stats, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.StatusID, &o.Total, &o.DeliveryDate, &o.DeliveryOTP,
		&o.Address.MobileNo, &o.Address.PostalCode, &o.Address.Country,
		&o.Address.State, &o.Address.City, &o.Address.Street,
		&o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}
