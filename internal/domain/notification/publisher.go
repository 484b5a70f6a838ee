package notification

import "context"

// Publisher pushes a persisted notification to the recipient's live
// connections. Delivery is best-effort and at-most-once per connection;
// errors never fail the operation that produced the notification.
type Publisher interface {
	Push(ctx context.Context, n *Notification) error
}
