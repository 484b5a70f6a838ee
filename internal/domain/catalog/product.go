package catalog

import (
	"errors"
	"time"
)

var (
	// ErrNotFound covers both a missing product and a product that has
	// no variant with the requested sku.
	ErrNotFound          = errors.New("catalog: product or variant not found")
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
	ErrInvalidQuantity   = errors.New("catalog: quantity must be greater than zero")
)

// Variant is one purchasable sku-level configuration of a product with
// its own price (minor units) and stock counter.
type Variant struct {
	SKU   string
	Price int64
	Stock int
}

type Product struct {
	ID        string
	Title     string
	Variants  []Variant
	UpdatedAt time.Time
}

// Variant returns the variant with the given sku, or nil.
func (p *Product) Variant(sku string) *Variant {
	for i := range p.Variants {
		if p.Variants[i].SKU == sku {
			return &p.Variants[i]
		}
	}
	return nil
}
