package storage

import (
	"context"
	"errors"

	"shopcore/internal/domain/catalog"
	"shopcore/internal/domain/notification"
	"shopcore/internal/domain/order"
	"shopcore/internal/domain/payment"
)

// ErrConflict means a transaction was aborted by a concurrent writer.
// It is safe to retry the whole unit of work.
var ErrConflict = errors.New("storage: transaction conflict")

// Store bundles the persisted collections behind one handle. InTx runs
// fn against a transactional view of the same collections with
// serializable snapshot semantics: everything fn does commits or aborts
// together, and no intermediate state is visible to other operations.
type Store interface {
	Catalog() catalog.Repository
	Orders() order.Repository
	Payments() payment.Repository
	Notifications() notification.Repository

	InTx(ctx context.Context, fn func(tx Store) error) error
}
