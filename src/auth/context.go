package auth

import (
	"context"
	"net/http"
	"strings"

	"hbrelay/src/model"
)

type contextKey string

const (
	IdentityKey contextKey = "identity"
	AdminKey    contextKey = "admin"
)

// Headers the WordPress shim forwards for the logged-in user.
const (
	HeaderUserID    = "X-WP-User-ID"
	HeaderUserEmail = "X-WP-User-Email"
)

func GetIdentityFromContext(ctx context.Context) (*model.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*model.Identity)
	return identity, ok && identity != nil
}

func WithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

func IsAdmin(ctx context.Context) bool {
	admin, _ := ctx.Value(AdminKey).(bool)
	return admin
}

// IdentityMiddleware attaches the forwarded user, if any, to the request context.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if id != "" {
			identity := &model.Identity{
				ID:    id,
				Email: strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
			}
			r = r.WithContext(WithIdentity(r.Context(), identity))
		}
		next.ServeHTTP(w, r)
	})
}
