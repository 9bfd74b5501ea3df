// Package address provides the address snapshot embedded into orders at
// placement time. The snapshot is copied once and never re-joined, so later
// address edits do not affect existing orders.
package address

import "context"

// Snapshot is the set of address fields copied onto an order.
type Snapshot struct {
	MobileNo   string
	PostalCode string
	Country    string
	State      string
	City       string
	Street     string
}

// Repository reads user addresses.
type Repository interface {
	// Get returns the address only when it belongs to the given user;
	// fault.KindNotFound otherwise.
	Get(ctx context.Context, id, userID string) (*Snapshot, error)
}
