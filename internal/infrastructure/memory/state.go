package memory

import (
	"sort"

	"shopcore/internal/domain/catalog"
	"shopcore/internal/domain/notification"
	"shopcore/internal/domain/order"
	"shopcore/internal/domain/payment"
	"shopcore/internal/domain/storage"
)

// state holds every collection. Its methods assume the caller already
// holds the right lock (or owns a private draft inside a transaction).
type state struct {
	products      map[string]*catalog.Product
	orders        map[string]*order.Order
	payments      map[string][]*payment.Payment
	notifications map[string]*notification.Notification
	notifSeq      []string
}

func newState() *state {
	return &state{
		products:      make(map[string]*catalog.Product),
		orders:        make(map[string]*order.Order),
		payments:      make(map[string][]*payment.Payment),
		notifications: make(map[string]*notification.Notification),
	}
}

func (st *state) clone() *state {
	c := newState()
	for id, p := range st.products {
		c.products[id] = cloneProduct(p)
	}
	for id, o := range st.orders {
		c.orders[id] = o.Clone()
	}
	for orderID, list := range st.payments {
		cp := make([]*payment.Payment, len(list))
		for i, p := range list {
			clone := *p
			cp[i] = &clone
		}
		c.payments[orderID] = cp
	}
	for id, n := range st.notifications {
		clone := *n
		c.notifications[id] = &clone
	}
	c.notifSeq = append([]string(nil), st.notifSeq...)
	return c
}

func cloneProduct(p *catalog.Product) *catalog.Product {
	clone := *p
	clone.Variants = append([]catalog.Variant(nil), p.Variants...)
	return &clone
}

func (st *state) findVariant(productID, sku string) (*catalog.Variant, error) {
	p, ok := st.products[productID]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	v := p.Variant(sku)
	if v == nil {
		return nil, catalog.ErrNotFound
	}
	clone := *v
	return &clone, nil
}

func (st *state) decrementStock(productID, sku string, quantity int) error {
	if quantity <= 0 {
		return catalog.ErrInvalidQuantity
	}
	p, ok := st.products[productID]
	if !ok {
		return catalog.ErrNotFound
	}
	v := p.Variant(sku)
	if v == nil {
		return catalog.ErrNotFound
	}
	if v.Stock < quantity {
		return catalog.ErrInsufficientStock
	}
	v.Stock -= quantity
	return nil
}

func (st *state) insertOrder(o *order.Order) error {
	if _, exists := st.orders[o.ID]; exists {
		return storage.ErrConflict
	}
	st.orders[o.ID] = o.Clone()
	return nil
}

func (st *state) getOrder(id string) (*order.Order, error) {
	o, ok := st.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o.Clone(), nil
}

func (st *state) updateOrder(o *order.Order) error {
	if _, ok := st.orders[o.ID]; !ok {
		return order.ErrNotFound
	}
	st.orders[o.ID] = o.Clone()
	return nil
}

func (st *state) appendPayment(p *payment.Payment) error {
	clone := *p
	st.payments[p.OrderID] = append(st.payments[p.OrderID], &clone)
	return nil
}

func (st *state) listPayments(orderID string) ([]*payment.Payment, error) {
	list := st.payments[orderID]
	out := make([]*payment.Payment, len(list))
	for i, p := range list {
		clone := *p
		out[i] = &clone
	}
	return out, nil
}

func (st *state) insertNotification(n *notification.Notification) error {
	clone := *n
	st.notifications[n.ID] = &clone
	st.notifSeq = append(st.notifSeq, n.ID)
	return nil
}

func (st *state) listNotifications(userID string) ([]*notification.Notification, error) {
	var out []*notification.Notification
	for _, id := range st.notifSeq {
		n, ok := st.notifications[id]
		if !ok || n.UserID != userID {
			continue
		}
		clone := *n
		out = append(out, &clone)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (st *state) markNotificationRead(id, userID string) (*notification.Notification, error) {
	n, ok := st.notifications[id]
	if !ok || n.UserID != userID {
		return nil, notification.ErrNotFound
	}
	n.IsRead = true
	clone := *n
	return &clone, nil
}

func (st *state) markAllNotificationsRead(userID string) error {
	for _, n := range st.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (st *state) deleteNotification(id, userID string) error {
	n, ok := st.notifications[id]
	if !ok || n.UserID != userID {
		return notification.ErrNotFound
	}
	delete(st.notifications, id)
	return nil
}
