package middleware

import (
	"net/http"
	"strings"

	"portfolio-cms/backend/internal/platform/httpx"
	"portfolio-cms/backend/internal/security"
)

const bearerPrefix = "bearer "

// SessionValidator validates a session token and returns the admin mobile it carries.
type SessionValidator interface {
	ValidateSession(token string) (string, error)
}

var _ SessionValidator = (*security.TokenProvider)(nil)

// RequireAdmin rejects requests without a valid Bearer session token and sets the admin
// mobile in context for the rest. Verification is purely cryptographic; no session table.
func RequireAdmin(tokens SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearer(r.Header.Get("Authorization"))
			if token == "" {
				httpx.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
				return
			}
			mobile, err := tokens.ValidateSession(token)
			if err != nil {
				httpx.Error(w, http.StatusUnauthorized, "missing or invalid authorization")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), mobile)))
		})
	}
}

// extractBearer returns the Bearer token from an Authorization header value, or "" if missing or malformed.
func extractBearer(header string) string {
	v := strings.TrimSpace(header)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
