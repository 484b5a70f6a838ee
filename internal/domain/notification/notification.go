package notification

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("notification: not found")

type Type string

const (
	TypeMessage Type = "MESSAGE"
	TypeOrder   Type = "ORDER"
	TypeSystem  Type = "SYSTEM"
)

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      Type      `json:"type"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
