package httptransport

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"shopcore/internal/auth"
	"shopcore/internal/pkg/logging"
)

type identityKey struct{}

func identityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(auth.Identity)
	return id, ok
}

// authenticate verifies the bearer credential and binds the identity
// and a request-scoped logger to the context.
func authenticate(verifier auth.Verifier, base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token == "" || token == r.Header.Get("Authorization") {
				writeError(w, http.StatusUnauthorized, auth.ErrUnauthenticated)
				return
			}

			identity, err := verifier.Verify(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, auth.ErrUnauthenticated)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey{}, identity)
			ctx = logging.WithContext(ctx, base.With(zap.String("user_id", identity.UserID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFrom(r.Context())
		if !ok || identity.Role != auth.RoleAdmin {
			writeError(w, http.StatusForbidden, auth.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
