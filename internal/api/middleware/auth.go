package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/streakr/streakr-api/internal/api/shared"
)

// TriggerAuthMiddleware guards the queue trigger endpoints with a shared
// secret bearer token. The triggers are called by scheduler infrastructure,
// not end users, so there is no per-user identity to establish.
type TriggerAuthMiddleware struct {
	sharedSecret string
}

// NewTriggerAuthMiddleware creates a TriggerAuthMiddleware with the given secret.
func NewTriggerAuthMiddleware(sharedSecret string) *TriggerAuthMiddleware {
	return &TriggerAuthMiddleware{sharedSecret: sharedSecret}
}

// Authenticate validates the bearer token from the Authorization header.
func (m *TriggerAuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		// Constant-time compare so the secret cannot be probed byte by byte.
		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(m.sharedSecret)) != 1 {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		next.ServeHTTP(w, r)
	})
}
