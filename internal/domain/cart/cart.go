// Package cart models the per-user shopping cart consumed by order
// placement. Carts are ephemeral: items are cleared as the final step of a
// successful placement, the cart row itself survives.
package cart

import "context"

// Cart is the single cart owned by a user.
type Cart struct {
	ID     string
	UserID string
}

// Item is one cart line.
type Item struct {
	ID        string
	CartID    string
	ProductID string
	Quantity  int
	Size      string
}

// Repository defines read operations on carts. Clearing happens inside the
// placement transaction via order.Tx.
type Repository interface {
	// GetByUser returns the user's cart; fault.KindNotFound when absent.
	GetByUser(ctx context.Context, userID string) (*Cart, error)
	// Items returns all lines in the cart, possibly empty.
	Items(ctx context.Context, cartID string) ([]Item, error)
}
