package catalog

import "context"

type Repository interface {
	// FindVariant resolves a product's variant by id and sku. Returns
	// ErrNotFound when either is missing.
	FindVariant(ctx context.Context, productID, sku string) (*Variant, error)

	// DecrementStock subtracts quantity from the variant's stock counter.
	// The precondition stock >= quantity is re-checked at the moment of
	// write; ErrInsufficientStock is returned and nothing is written when
	// it does not hold.
	DecrementStock(ctx context.Context, productID, sku string, quantity int) error
}
