package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"shopcore/internal/domain/catalog"
	"shopcore/internal/domain/notification"
	"shopcore/internal/domain/order"
	"shopcore/internal/domain/payment"
	"shopcore/internal/domain/storage"
	"shopcore/internal/infrastructure/postgres"
)

// dockerAvailable probes the container runtime without letting
// testcontainers panic the suite: host detection panics outright on
// machines with no Docker socket, so the probe recovers and reports
// that as unavailable.
func dockerAvailable() (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return provider.Health(context.Background()) == nil
}

func newTestStore(t *testing.T) *postgres.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	if !dockerAvailable() {
		t.Skip("container runtime unavailable")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("shopcore_test"),
		tcpostgres.WithUsername("shopcore"),
		tcpostgres.WithPassword("shopcore"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Skipf("container start failed: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := postgres.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx), "migrate must be idempotent")
	return store
}

func seedWidget(t *testing.T, store *postgres.Store, stock int) {
	t.Helper()
	require.NoError(t, store.SaveProduct(context.Background(), &catalog.Product{
		ID:    "prod-1",
		Title: "Widget",
		Variants: []catalog.Variant{
			{SKU: "red", Price: 2500, Stock: stock},
		},
	}))
}

func newOrder(t *testing.T, userID string, qty int) *order.Order {
	t.Helper()
	o, err := order.New(uuid.NewString(), userID, []order.Line{
		{ProductID: "prod-1", VariantSKU: "red", Quantity: qty, UnitPrice: 2500},
	}, int64(qty)*2500)
	require.NoError(t, err)
	return o
}

func TestCatalogRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedWidget(t, store, 5)

	v, err := store.Catalog().FindVariant(ctx, "prod-1", "red")
	require.NoError(t, err)
	assert.Equal(t, int64(2500), v.Price)
	assert.Equal(t, 5, v.Stock)

	_, err = store.Catalog().FindVariant(ctx, "prod-1", "green")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	_, err = store.Catalog().FindVariant(ctx, "prod-2", "red")
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	// Re-seeding upserts rather than duplicating.
	seedWidget(t, store, 7)
	v, err = store.Catalog().FindVariant(ctx, "prod-1", "red")
	require.NoError(t, err)
	assert.Equal(t, 7, v.Stock)
}

func TestDecrementStockGuardsPrecondition(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedWidget(t, store, 3)

	require.NoError(t, store.Catalog().DecrementStock(ctx, "prod-1", "red", 2))

	err := store.Catalog().DecrementStock(ctx, "prod-1", "red", 2)
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)

	err = store.Catalog().DecrementStock(ctx, "prod-1", "green", 1)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	err = store.Catalog().DecrementStock(ctx, "prod-1", "red", 0)
	assert.ErrorIs(t, err, catalog.ErrInvalidQuantity)

	v, err := store.Catalog().FindVariant(ctx, "prod-1", "red")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Stock, "failed decrements must not change stock")
}

func TestOrderRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedWidget(t, store, 5)

	o := newOrder(t, "user-1", 2)
	require.NoError(t, store.Orders().Insert(ctx, o))

	got, err := store.Orders().Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.UserID, got.UserID)
	assert.Equal(t, order.StatusPending, got.Status)
	assert.Equal(t, order.PaymentPending, got.PaymentStatus)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, int64(2500), got.Lines[0].UnitPrice)

	_, err = store.Orders().Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, order.ErrNotFound)

	require.NoError(t, got.MarkPaid())
	got.UpdatedAt = time.Now().UTC()
	require.NoError(t, store.Orders().Update(ctx, got))

	again, err := store.Orders().Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentPaid, again.PaymentStatus)
}

func TestPaymentLedgerAppendOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedWidget(t, store, 5)

	o := newOrder(t, "user-1", 1)
	require.NoError(t, store.Orders().Insert(ctx, o))

	base := time.Now().UTC()
	for i, st := range []payment.Status{payment.StatusFailed, payment.StatusSucceeded} {
		require.NoError(t, store.Payments().Append(ctx, &payment.Payment{
			ID:            uuid.NewString(),
			OrderID:       o.ID,
			Method:        "card",
			TransactionID: uuid.NewString(),
			Status:        st,
			CreatedAt:     base.Add(time.Duration(i) * time.Second),
		}))
	}

	rows, err := store.Payments().ListByOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, payment.StatusFailed, rows[0].Status)
	assert.Equal(t, payment.StatusSucceeded, rows[1].Status)
}

func TestNotificationLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &notification.Notification{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		Type:      notification.TypeOrder,
		Content:   "first",
		CreatedAt: time.Now().UTC().Add(-time.Minute),
	}
	second := &notification.Notification{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		Type:      notification.TypeSystem,
		Content:   "second",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Notifications().Insert(ctx, first))
	require.NoError(t, store.Notifications().Insert(ctx, second))

	rows, err := store.Notifications().ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "second", rows[0].Content, "newest first")

	marked, err := store.Notifications().MarkRead(ctx, first.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, marked.IsRead)

	_, err = store.Notifications().MarkRead(ctx, second.ID, "user-2")
	assert.ErrorIs(t, err, notification.ErrNotFound)
	err = store.Notifications().Delete(ctx, second.ID, "user-2")
	assert.ErrorIs(t, err, notification.ErrNotFound)

	require.NoError(t, store.Notifications().MarkAllRead(ctx, "user-1"))
	rows, err = store.Notifications().ListByUser(ctx, "user-1")
	require.NoError(t, err)
	for _, n := range rows {
		assert.True(t, n.IsRead)
	}

	require.NoError(t, store.Notifications().Delete(ctx, second.ID, "user-1"))
	rows, err = store.Notifications().ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestInTxRollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedWidget(t, store, 5)

	o := newOrder(t, "user-1", 1)
	sentinel := assert.AnError
	err := store.InTx(ctx, func(tx storage.Store) error {
		if err := tx.Orders().Insert(ctx, o); err != nil {
			return err
		}
		if err := tx.Catalog().DecrementStock(ctx, "prod-1", "red", 1); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = store.Orders().Get(ctx, o.ID)
	assert.ErrorIs(t, err, order.ErrNotFound)
	v, err := store.Catalog().FindVariant(ctx, "prod-1", "red")
	require.NoError(t, err)
	assert.Equal(t, 5, v.Stock)
}

func TestInTxCommits(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedWidget(t, store, 5)

	o := newOrder(t, "user-1", 2)
	err := store.InTx(ctx, func(tx storage.Store) error {
		if err := tx.Orders().Insert(ctx, o); err != nil {
			return err
		}
		return tx.Catalog().DecrementStock(ctx, "prod-1", "red", 2)
	})
	require.NoError(t, err)

	_, err = store.Orders().Get(ctx, o.ID)
	require.NoError(t, err)
	v, err := store.Catalog().FindVariant(ctx, "prod-1", "red")
	require.NoError(t, err)
	assert.Equal(t, 3, v.Stock)
}

func TestSerializationFailureMapsToConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedWidget(t, store, 10)

	// Two serializable transactions that read then write the same row;
	// postgres aborts at least one with a serialization failure.
	const workers = 4
	errs := make(chan error, workers)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			<-start
			errs <- store.InTx(ctx, func(tx storage.Store) error {
				if _, err := tx.Catalog().FindVariant(ctx, "prod-1", "red"); err != nil {
					return err
				}
				time.Sleep(50 * time.Millisecond)
				return tx.Catalog().DecrementStock(ctx, "prod-1", "red", 1)
			})
		}()
	}
	close(start)

	var conflicts, successes int
	for i := 0; i < workers; i++ {
		switch err := <-errs; {
		case err == nil:
			successes++
		case assert.ErrorIs(t, err, storage.ErrConflict):
			conflicts++
		}
	}
	assert.GreaterOrEqual(t, successes, 1)

	v, err := store.Catalog().FindVariant(ctx, "prod-1", "red")
	require.NoError(t, err)
	assert.Equal(t, 10-successes, v.Stock)
}
