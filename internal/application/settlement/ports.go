package settlement

import (
	"context"

	"shopcore/internal/domain/notification"
)

type IDGenerator interface {
	NewID() string
}

// Notifier is the fan-out port. Settlement treats every call as
// fire-and-forget: a notifier failure never rolls back or fails the
// operation that triggered it.
type Notifier interface {
	Notify(ctx context.Context, userID string, typ notification.Type, content string) error
}
