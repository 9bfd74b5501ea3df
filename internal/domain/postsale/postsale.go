// Package postsale implements the shared return/exchange engine: both flows
// derive the delivery date from the order, enforce the 7-day window, and are
// auto-approved on creation. Returns additionally cap cumulative quantity
// per order line.
package postsale

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Return is a post-sale return request against one order line.
type Return struct {
	ID        string
	OrderID   string
	ProductID string
	StatusID  string
	UserID    string
	Reason    string
	ImageURL  string
	Quantity  int
	Amount    decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Exchange is a post-sale exchange request against one order line.
type Exchange struct {
	ID          string
	OrderID     string
	ProductID   string
	StatusID    string
	UserID      string
	Reason      string
	ImageURL    string
	NewQuantity int
	NewSize     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderItemInfo is the slice of an order line the engine needs.
type OrderItemInfo struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
}

// OrderInfo is the slice of an order the engine needs. DeliveryDate is the
// raw stored value; NormalizeDeliveryDate turns it into a date.
type OrderInfo struct {
	ID           string
	UserID       string
	DeliveryDate any
}

// OrderReader reads orders and order lines without exposing the full order
// repository.
type OrderReader interface {
	OrderItem(ctx context.Context, id string) (*OrderItemInfo, error)
	Order(ctx context.Context, id string) (*OrderInfo, error)
}

// Filter narrows admin listings. Zero values mean "no filter".
type Filter struct {
	UserID    string
	OrderID   string
	ProductID string
	StatusID  string
}

// Page is offset/limit pagination.
type Page struct {
	Skip  int
	Limit int
}

// ReturnRepository persists returns.
type ReturnRepository interface {
	Create(ctx context.Context, r *Return) error
	GetByID(ctx context.Context, id string) (*Return, error)
	List(ctx context.Context, f Filter, page Page) ([]Return, error)
	// ReturnedQuantity sums quantities across all returns for the
	// (order, product) pair.
	ReturnedQuantity(ctx context.Context, orderID, productID string) (int, error)
	UpdateStatus(ctx context.Context, id, statusID string) (*Return, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ExchangeRepository persists exchanges.
type ExchangeRepository interface {
	Create(ctx context.Context, e *Exchange) error
	GetByID(ctx context.Context, id string) (*Exchange, error)
	List(ctx context.Context, f Filter, page Page) ([]Exchange, error)
	UpdateStatus(ctx context.Context, id, statusID string) (*Exchange, error)
	Delete(ctx context.Context, id string) (bool, error)
}

func clampPage(p Page) Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit < 1 {
		p.Limit = 20
	}
	if p.Limit > 200 {
		p.Limit = 200
	}
	return p
}
