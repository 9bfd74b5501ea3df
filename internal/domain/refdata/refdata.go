// Package refdata resolves human status labels to the stable identifiers
// seeded into the reference tables. A missing label is a deployment defect,
// not a user error.
package refdata

import (
	"context"
)

// Reference sets. Each set is an independent label namespace.
const (
	SetOrderStatus    = "order_status"
	SetReturnStatus   = "return_status"
	SetExchangeStatus = "exchange_status"
	SetPaymentStatus  = "payment_status"
	SetPaymentType    = "payment_type"
)

// Well-known order status labels.
const (
	OrderPlaced         = "placed"
	OrderConfirmed      = "confirmed"
	OrderPacked         = "packed"
	OrderOutForDelivery = "out_for_delivery"
	OrderDelivered      = "delivered"
	OrderCancelled      = "cancelled"
)

// Well-known payment status and type labels.
const (
	PaymentPending = "pending"
	PaymentSuccess = "success"

	PayTypeCOD  = "cod"
	PayTypeCard = "card"
	PayTypeUPI  = "upi"
)

// PostSaleApproved is the initial status for returns and exchanges; requests
// are auto-approved, there is no pending-review state.
const PostSaleApproved = "approved"

// Value is one reference row.
type Value struct {
	ID    string
	Set   string
	Label string
}

// Repository looks up reference rows in the backing store.
type Repository interface {
	// FindByLabel returns the row for (set, label). A missing label yields a
	// fault.KindConfiguration error.
	FindByLabel(ctx context.Context, set, label string) (*Value, error)
	// FindByID returns the row for (set, id). A missing id yields a
	// fault.KindNotFound error.
	FindByID(ctx context.Context, set, id string) (*Value, error)
}
