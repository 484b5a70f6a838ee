package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopcore/internal/domain/notification"
	"shopcore/internal/infrastructure/memory"
	"shopcore/internal/pkg/metrics"
)

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("ntf-%d", g.n)
}

type capturingPublisher struct {
	mu     sync.Mutex
	err    error
	pushed []*notification.Notification
}

func (p *capturingPublisher) Push(_ context.Context, n *notification.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.pushed = append(p.pushed, n)
	return nil
}

func TestNotifyPersistsAndPushes(t *testing.T) {
	pub := &capturingPublisher{}
	svc := NewService(memory.NewStore(), pub, &seqIDs{}, metrics.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.Notify(ctx, "user-1", notification.TypeOrder, "Your order has been created."))

	rows, err := svc.ListForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Your order has been created.", rows[0].Content)
	assert.Equal(t, notification.TypeOrder, rows[0].Type)
	assert.False(t, rows[0].IsRead)

	require.Len(t, pub.pushed, 1)
	assert.Equal(t, rows[0].ID, pub.pushed[0].ID)
}

func TestNotifyRejectsEmptyUser(t *testing.T) {
	svc := NewService(memory.NewStore(), &capturingPublisher{}, &seqIDs{}, metrics.NewNop())

	err := svc.Notify(context.Background(), "", notification.TypeSystem, "hello")
	require.Error(t, err)
}

func TestNotifySurvivesPushFailure(t *testing.T) {
	pub := &capturingPublisher{err: errors.New("connection reset")}
	m := metrics.NewNop()
	svc := NewService(memory.NewStore(), pub, &seqIDs{}, m)
	ctx := context.Background()

	require.NoError(t, svc.Notify(ctx, "user-1", notification.TypeSystem, "hello"))

	rows, err := svc.ListForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, rows, 1, "row must be persisted even when the push fails")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PushFailures))
}

func TestNotifyWithoutPublisher(t *testing.T) {
	svc := NewService(memory.NewStore(), nil, &seqIDs{}, metrics.NewNop())

	require.NoError(t, svc.Notify(context.Background(), "user-1", notification.TypeMessage, "hi"))
}

func TestMarkReadAndDelete(t *testing.T) {
	svc := NewService(memory.NewStore(), &capturingPublisher{}, &seqIDs{}, metrics.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.Notify(ctx, "user-1", notification.TypeOrder, "first"))
	require.NoError(t, svc.Notify(ctx, "user-1", notification.TypeOrder, "second"))

	rows, err := svc.ListForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	marked, err := svc.MarkRead(ctx, rows[0].ID, "user-1")
	require.NoError(t, err)
	assert.True(t, marked.IsRead)

	// Another user cannot touch the row.
	_, err = svc.MarkRead(ctx, rows[1].ID, "user-2")
	assert.ErrorIs(t, err, notification.ErrNotFound)
	err = svc.Delete(ctx, rows[1].ID, "user-2")
	assert.ErrorIs(t, err, notification.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, rows[1].ID, "user-1"))
	rows, err = svc.ListForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestMarkAllRead(t *testing.T) {
	svc := NewService(memory.NewStore(), &capturingPublisher{}, &seqIDs{}, metrics.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Notify(ctx, "user-1", notification.TypeOrder, "n"))
	}
	require.NoError(t, svc.Notify(ctx, "user-2", notification.TypeOrder, "other"))

	require.NoError(t, svc.MarkAllRead(ctx, "user-1"))

	rows, err := svc.ListForUser(ctx, "user-1")
	require.NoError(t, err)
	for _, n := range rows {
		assert.True(t, n.IsRead)
	}
	other, err := svc.ListForUser(ctx, "user-2")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.False(t, other[0].IsRead)
}
