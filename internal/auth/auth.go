package auth

import (
	"context"
	"errors"
)

var (
	ErrUnauthenticated = errors.New("auth: invalid or missing credential")
	ErrForbidden       = errors.New("auth: insufficient role")
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Identity struct {
	UserID string
	Role   Role
}

// Verifier authenticates a bearer credential the same way for HTTP
// requests and realtime connection handshakes. Token issuance and
// rotation live outside this module.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
