package payment

import "context"

type Repository interface {
	// Append records one settlement attempt. The ledger is never
	// updated or deleted.
	Append(ctx context.Context, payment *Payment) error
	ListByOrder(ctx context.Context, orderID string) ([]*Payment, error)
}
