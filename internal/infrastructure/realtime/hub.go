package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"shopcore/internal/domain/notification"
)

const sendBuffer = 16

// Hub maintains the recipient to connection-group mapping. A user may
// hold several live sessions (multiple tabs, devices); a push reaches
// each of them at most once and is skipped silently when the user has
// none.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*Session]struct{}
	log      *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]map[*Session]struct{}),
		log:      logger.With(zap.String("component", "realtime_hub")),
	}
}

// Session is one live connection bound to an authenticated user.
type Session struct {
	userID string
	ch     chan []byte
	done   chan struct{}
	hub    *Hub
	once   sync.Once
}

func (h *Hub) Subscribe(userID string) *Session {
	s := &Session{
		userID: userID,
		ch:     make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		hub:    h,
	}

	h.mu.Lock()
	group, ok := h.sessions[userID]
	if !ok {
		group = make(map[*Session]struct{})
		h.sessions[userID] = group
	}
	group[s] = struct{}{}
	h.mu.Unlock()

	h.log.Info("session_opened", zap.String("user_id", userID))
	return s
}

// Receive yields outbound frames for this session.
func (s *Session) Receive() <-chan []byte { return s.ch }

// Done is closed when the session is closed.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		if group, ok := h.sessions[s.userID]; ok {
			delete(group, s)
			if len(group) == 0 {
				delete(h.sessions, s.userID)
			}
		}
		h.mu.Unlock()
		close(s.done)

		h.log.Info("session_closed", zap.String("user_id", s.userID))
	})
}

type envelope struct {
	Event   string                     `json:"event"`
	Payload *notification.Notification `json:"payload"`
}

// Push implements notification.Publisher. Frames are dropped for slow
// consumers rather than blocking the caller.
func (h *Hub) Push(_ context.Context, n *notification.Notification) error {
	frame, err := json.Marshal(envelope{Event: "notification:new", Payload: n})
	if err != nil {
		return err
	}

	h.mu.RLock()
	group := make([]*Session, 0, len(h.sessions[n.UserID]))
	for s := range h.sessions[n.UserID] {
		group = append(group, s)
	}
	h.mu.RUnlock()

	for _, s := range group {
		select {
		case s.ch <- frame:
		default:
			h.log.Warn("session_frame_dropped", zap.String("user_id", n.UserID))
		}
	}
	return nil
}
