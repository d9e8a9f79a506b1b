package auth

import (
	"context"
	"net/http"
	"strings"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	// AdminTokenHeader carries the plaintext admin token.
	AdminTokenHeader = "X-Admin-Token"
	// RelayTokenHeader carries the shared secret of the site shim.
	RelayTokenHeader = "X-Relay-Token"
	adminTokenQuery  = "token"
)

// CheckAdminToken compares token with a bcrypt hash.
func CheckAdminToken(hash, token string) bool {
	if hash == "" || token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}

// HashAdminToken produces the value to configure as ADMIN_TOKEN_HASH or
// INGEST_TOKEN_HASH.
func HashAdminToken(token string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func adminToken(r *http.Request) string {
	if t := r.Header.Get(AdminTokenHeader); t != "" {
		return t
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func markAdmin(hash string, token func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAdmin(r.Context()) && CheckAdminToken(hash, token(r)) {
				r = r.WithContext(context.WithValue(r.Context(), AdminKey, true))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MarkAdmin flags requests carrying a valid admin token header. It never
// rejects.
func MarkAdmin(hash string) func(http.Handler) http.Handler {
	return markAdmin(hash, adminToken)
}

// MarkAdminFromQuery also accepts the token as ?token=. Browsers cannot set
// headers on a websocket handshake, so only the notice stream uses it.
func MarkAdminFromQuery(hash string) func(http.Handler) http.Handler {
	return markAdmin(hash, func(r *http.Request) string {
		return r.URL.Query().Get(adminTokenQuery)
	})
}

// RequireRelayToken rejects requests without the site shim's shared secret.
func RequireRelayToken(hash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !CheckAdminToken(hash, r.Header.Get(RelayTokenHeader)) {
				logger.WithField("path", r.URL.Path).Warn("relay token missing or invalid")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects requests that MarkAdmin did not flag.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			logger.WithField("path", r.URL.Path).Warn("admin token missing or invalid")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
