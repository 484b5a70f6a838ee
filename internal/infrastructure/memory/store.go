package memory

import (
	"context"
	"sync"

	"shopcore/internal/domain/catalog"
	"shopcore/internal/domain/notification"
	"shopcore/internal/domain/order"
	"shopcore/internal/domain/payment"
	"shopcore/internal/domain/storage"
)

// Store is an in-memory storage.Store. Transactions run against a deep
// copy of the state under an exclusive lock and are swapped in on
// commit, so a failed unit of work leaves nothing behind and concurrent
// operations serialize fully.
type Store struct {
	mu    sync.RWMutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

func (s *Store) Catalog() catalog.Repository { return &catalogRepo{s: s} }
func (s *Store) Orders() order.Repository { return &orderRepo{s: s} }
func (s *Store) Payments() payment.Repository { return &paymentRepo{s: s} }
func (s *Store) Notifications() notification.Repository { return &notificationRepo{s: s} }

func (s *Store) InTx(ctx context.Context, fn func(tx storage.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.state.clone()
	if err := fn(&txStore{state: draft}); err != nil {
		return err
	}
	s.state = draft
	return nil
}

// SeedProduct inserts or replaces a product. Catalog management proper
// lives outside this core; this exists for wiring and tests.
func (s *Store) SeedProduct(p *catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.products[p.ID] = cloneProduct(p)
}

// txStore is the transactional view handed to InTx callbacks. It
// operates on the draft without locking; the owning Store holds the
// write lock for the duration of the transaction.
type txStore struct {
	state *state
}

func (t *txStore) Catalog() catalog.Repository { return &txCatalogRepo{state: t.state} }
func (t *txStore) Orders() order.Repository { return &txOrderRepo{state: t.state} }
func (t *txStore) Payments() payment.Repository { return &txPaymentRepo{state: t.state} }
func (t *txStore) Notifications() notification.Repository { return &txNotificationRepo{state: t.state} }

func (t *txStore) InTx(_ context.Context, fn func(tx storage.Store) error) error {
	// Already inside the atomic unit.
	return fn(t)
}
