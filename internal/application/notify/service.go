package notify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"shopcore/internal/domain/notification"
	"shopcore/internal/domain/storage"
	"shopcore/internal/pkg/logging"
	"shopcore/internal/pkg/metrics"
)

type IDGenerator interface {
	NewID() string
}

// Service persists notifications and fans them out to live connections.
// The persisted row is the source of truth; the push is best-effort and
// a recipient with no live connection simply reads the row later.
type Service struct {
	store     storage.Store
	publisher notification.Publisher
	ids       IDGenerator
	metrics   *metrics.Metrics
}

func NewService(store storage.Store, publisher notification.Publisher, ids IDGenerator, m *metrics.Metrics) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		ids:       ids,
		metrics:   m,
	}
}

func (s *Service) Notify(ctx context.Context, userID string, typ notification.Type, content string) error {
	if userID == "" {
		return errors.New("notify: user id is required")
	}

	n := &notification.Notification{
		ID:        s.ids.NewID(),
		UserID:    userID,
		Type:      typ,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Notifications().Insert(ctx, n); err != nil {
		return err
	}

	if s.publisher != nil {
		if err := s.publisher.Push(ctx, n); err != nil {
			// Push failures are logged and discarded; the row stays
			// retrievable through ListForUser.
			logging.FromContext(ctx).Warn("notification_push_failed",
				zap.String("notification_id", n.ID),
				zap.String("user_id", userID),
				zap.Error(err),
			)
			if s.metrics != nil {
				s.metrics.PushFailures.Inc()
			}
		}
	}
	return nil
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]*notification.Notification, error) {
	return s.store.Notifications().ListByUser(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, id, userID string) (*notification.Notification, error) {
	return s.store.Notifications().MarkRead(ctx, id, userID)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	return s.store.Notifications().MarkAllRead(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, id, userID string) error {
	return s.store.Notifications().Delete(ctx, id, userID)
}
