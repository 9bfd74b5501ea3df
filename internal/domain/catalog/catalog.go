// Package catalog exposes read access to the product catalog. Inventory
// counts are mutated only by the stock ledger inside the placement
// transaction; everything else reads.
package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product is a catalog item available for purchase.
type Product struct {
	ID         string
	Name       string
	Price      decimal.Decimal
	Quantity   int
	OutOfStock bool
}

// Repository defines read operations for the product catalog.
type Repository interface {
	// GetByID returns a single product. A missing product yields a
	// fault.KindNotFound error.
	GetByID(ctx context.Context, id string) (*Product, error)
}
