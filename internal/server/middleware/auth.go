// Package middleware provides HTTP middleware for shared-secret authorization
// of the cron and sync endpoints.
package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// SyncSecretHeader carries the secret for the sync endpoints
const SyncSecretHeader = "X-Sync-Secret"

// RequireBearer rejects requests whose Authorization header is not
// "Bearer {secret}". An empty secret rejects every request.
func RequireBearer(secret string) func(http.Handler) http.Handler {
	return require(func(r *http.Request) bool {
		token, ok := BearerToken(r)
		return ok && SecretMatches(token, secret)
	})
}

// RequireHeader rejects requests whose header value does not equal secret.
// An empty secret rejects every request.
func RequireHeader(header, secret string) func(http.Handler) http.Handler {
	return require(func(r *http.Request) bool {
		return SecretMatches(r.Header.Get(header), secret)
	})
}

func require(authorized func(r *http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authorized(r) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "Unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token from an Authorization header. The scheme is
// matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// SecretMatches compares in constant time. Empty values never match.
func SecretMatches(provided, secret string) bool {
	if provided == "" || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) == 1
}
