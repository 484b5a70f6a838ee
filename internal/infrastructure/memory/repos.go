package memory

import (
	"context"

	"shopcore/internal/domain/catalog"
	"shopcore/internal/domain/notification"
	"shopcore/internal/domain/order"
	"shopcore/internal/domain/payment"
)

// Locked repositories, used outside transactions.

type catalogRepo struct{ s *Store }

func (r *catalogRepo) FindVariant(_ context.Context, productID, sku string) (*catalog.Variant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.state.findVariant(productID, sku)
}

func (r *catalogRepo) DecrementStock(_ context.Context, productID, sku string, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.state.decrementStock(productID, sku, quantity)
}

type orderRepo struct{ s *Store }

func (r *orderRepo) Insert(_ context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.state.insertOrder(o)
}

func (r *orderRepo) Get(_ context.Context, id string) (*order.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.state.getOrder(id)
}

func (r *orderRepo) Update(_ context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.state.updateOrder(o)
}

type paymentRepo struct{ s *Store }

func (r *paymentRepo) Append(_ context.Context, p *payment.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.state.appendPayment(p)
}

func (r *paymentRepo) ListByOrder(_ context.Context, orderID string) ([]*payment.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.state.listPayments(orderID)
}

type notificationRepo struct{ s *Store }

func (r *notificationRepo) Insert(_ context.Context, n *notification.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.state.insertNotification(n)
}

func (r *notificationRepo) ListByUser(_ context.Context, userID string) ([]*notification.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.state.listNotifications(userID)
}

func (r *notificationRepo) MarkRead(_ context.Context, id, userID string) (*notification.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.state.markNotificationRead(id, userID)
}

func (r *notificationRepo) MarkAllRead(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.state.markAllNotificationsRead(userID)
}

func (r *notificationRepo) Delete(_ context.Context, id, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.state.deleteNotification(id, userID)
}

// Unlocked repositories, used inside a transaction draft.

type txCatalogRepo struct{ state *state }

func (r *txCatalogRepo) FindVariant(_ context.Context, productID, sku string) (*catalog.Variant, error) {
	return r.state.findVariant(productID, sku)
}

func (r *txCatalogRepo) DecrementStock(_ context.Context, productID, sku string, quantity int) error {
	return r.state.decrementStock(productID, sku, quantity)
}

type txOrderRepo struct{ state *state }

func (r *txOrderRepo) Insert(_ context.Context, o *order.Order) error {
	return r.state.insertOrder(o)
}

func (r *txOrderRepo) Get(_ context.Context, id string) (*order.Order, error) {
	return r.state.getOrder(id)
}

func (r *txOrderRepo) Update(_ context.Context, o *order.Order) error {
	return r.state.updateOrder(o)
}

type txPaymentRepo struct{ state *state }

func (r *txPaymentRepo) Append(_ context.Context, p *payment.Payment) error {
	return r.state.appendPayment(p)
}

func (r *txPaymentRepo) ListByOrder(_ context.Context, orderID string) ([]*payment.Payment, error) {
	return r.state.listPayments(orderID)
}

type txNotificationRepo struct{ state *state }

func (r *txNotificationRepo) Insert(_ context.Context, n *notification.Notification) error {
	return r.state.insertNotification(n)
}

func (r *txNotificationRepo) ListByUser(_ context.Context, userID string) ([]*notification.Notification, error) {
	return r.state.listNotifications(userID)
}

func (r *txNotificationRepo) MarkRead(_ context.Context, id, userID string) (*notification.Notification, error) {
	return r.state.markNotificationRead(id, userID)
}

func (r *txNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	return r.state.markAllNotificationsRead(userID)
}

func (r *txNotificationRepo) Delete(_ context.Context, id, userID string) error {
	return r.state.deleteNotification(id, userID)
}
