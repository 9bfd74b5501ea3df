// Package order implements the order lifecycle: the placement transaction,
// the status state machine, and the listing layer.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marketbay/fulfillment/internal/domain/address"
)

// DeliveryLeadDays is added to the placement date to produce the initial
// delivery date.
const DeliveryLeadDays = 3

// DeliveryFee is the flat fee recorded on every payment row.
var DeliveryFee = decimal.NewFromInt(30)

// Order is a committed customer order. Total is fixed at placement time;
// the address is a snapshot, never re-joined against the address store.
type Order struct {
	ID           string
	UserID       string
	Address      address.Snapshot
	StatusID     string
	Total        decimal.Decimal
	DeliveryDate time.Time
	// DeliveryOTP is a zero-padded 6-digit code, present only while the
	// order is out for delivery.
	DeliveryOTP *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Item is one order line, created from a cart item at placement and
// immutable afterwards.
type Item struct {
	ID        string
	OrderID   string
	UserID    string
	ProductID string
	Quantity  int
	Size      string
}

// Payment is the single payment record created atomically with its order.
type Payment struct {
	ID              string
	OrderID         string
	UserID          string
	PaymentTypeID   string
	PaymentStatusID string
	InvoiceNo       string
	DeliveryFee     decimal.Decimal
	Amount          decimal.Decimal
}

// Page is offset/limit pagination.
type Page struct {
	Skip  int
	Limit int
}

// ListFilter is the admin listing filter set. Zero values mean "no filter".
// Date ranges are inclusive and expanded to start/end of day in UTC by the
// repository.
type ListFilter struct {
	UserID        string
	StatusID      string
	PaymentTypeID string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	DeliveryFrom  *time.Time
	DeliveryTo    *time.Time
	MinTotal      *decimal.Decimal
	MaxTotal      *decimal.Decimal
	// Search matches invoice number and address mobile number,
	// case-insensitive substring.
	Search string
	// Sort is a field name, optionally prefixed with '-' for descending.
	// Default: -created_at. Allowed fields: created_at, total, delivery_date.
	Sort string
	Page Page
}

// StatusUpdate describes an administrative status transition.
type StatusUpdate struct {
	StatusID     string
	DeliveryDate *time.Time
	// OTP, when non-nil, is stored; ClearOTP nulls the stored OTP. At most
	// one of the two is set per update.
	OTP      *string
	ClearOTP bool
}

// DeleteStats reports per-table delete counts from a cascading order delete.
type DeleteStats struct {
	Orders      int64 `json:"orders"`
	OrderItems  int64 `json:"order_items"`
	Payments    int64 `json:"payments"`
	CardDetails int64 `json:"card_details"`
	UpiDetails  int64 `json:"upi_details"`
}

// Tx is the write set available inside the placement transaction. All calls
// share one database transaction: either every write commits or none do,
// including stock decrements.
type Tx interface {
	// Reserve atomically decrements product stock when quantity >= qty and
	// returns the unit price used for billing. A missing product or
	// insufficient quantity yields fault.KindInsufficientStock. When the
	// post-decrement quantity hits zero the out-of-stock flag is flipped in
	// a second guarded update.
	Reserve(ctx context.Context, productID string, qty int) (decimal.Decimal, error)
	InsertOrder(ctx context.Context, o *Order) error
	InsertItems(ctx context.Context, items []Item) error
	InsertPayment(ctx context.Context, p *Payment) error
	InsertCardDetail(ctx context.Context, paymentID, name, encryptedNo string) error
	InsertUpiDetail(ctx context.Context, paymentID, handle string) error
	ClearCart(ctx context.Context, cartID string) error
}

// Repository defines persistence operations for orders.
type Repository interface {
	// InTx runs fn inside one multi-document transaction with snapshot
	// isolation or stronger; fn returning an error aborts and rolls back.
	// Serialization conflicts surface as fault.KindConflict.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string, page Page) ([]Order, error)
	List(ctx context.Context, f ListFilter) ([]Order, error)

	// CancelOwn performs the race-safe cancel guard: a single conditional
	// update matching (id, owner, status in eligible) that sets the status
	// to cancelledID. It returns (nil, nil) when no row matched.
	CancelOwn(ctx context.Context, id, userID string, eligible []string, cancelledID string) (*Order, error)

	// UpdateStatus applies an administrative transition; fault.KindNotFound
	// when the order does not exist.
	UpdateStatus(ctx context.Context, id string, u StatusUpdate) (*Order, error)

	// DeleteCascade removes the order and its items, payment and payment
	// detail rows in one transaction.
	DeleteCascade(ctx context.Context, id string) (*DeleteStats, error)
}
