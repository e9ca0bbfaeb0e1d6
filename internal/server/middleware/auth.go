// Package middleware holds the HTTP middleware shared by the linker's routes.
package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"slack-identity-linker/internal/security"
)

const bearerPrefix = "bearer "

// AccessCookieName is the cookie checked when no Authorization header is sent.
// Browsers following a link from Slack carry the platform session cookie, not a header.
const AccessCookieName = "access_token"

// AccessValidator validates access tokens.
type AccessValidator interface {
	ValidateAccess(token string) (*security.AccessClaims, error)
}

// Authenticate validates the Bearer token (or access cookie) and sets user_id, org_id, session_id
// in the request context. Requests without a valid token pass through unauthenticated; handlers
// that need a user check GetUserID and answer 401.
func Authenticate(tokens AccessValidator, log *zap.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := tokens.ValidateAccess(token)
			if err != nil {
				log.Debug("access token rejected", zap.String("path", r.URL.Path), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			ctx := WithIdentity(r.Context(), claims.Subject, claims.OrgID, claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) string {
	if t := extractBearer(r.Header.Get("Authorization")); t != "" {
		return t
	}
	if c, err := r.Cookie(AccessCookieName); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

// extractBearer returns the token of a Bearer authorization value, or "" if missing or malformed.
func extractBearer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
