package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/akinalp/mqvi-sync/pkg"
	"github.com/akinalp/mqvi-sync/pkg/ratelimit"
)

type contextKey string

// UserIDContextKey holds the authenticated user id on the request context.
const UserIDContextKey contextKey = "user_id"

// TokenValidator resolves a bearer token to a user id.
type TokenValidator interface {
	UserID(token string) (string, error)
}

// AuthMiddleware lets through only requests carrying a token for the user
// this engine syncs for. Failed attempts are throttled per client IP.
type AuthMiddleware struct {
	validator TokenValidator
	userID    string
	limiter   *ratelimit.AttemptLimiter
}

func NewAuthMiddleware(validator TokenValidator, userID string, limiter *ratelimit.AttemptLimiter) *AuthMiddleware {
	return &AuthMiddleware{validator: validator, userID: userID, limiter: limiter}
}

// Require wraps next with the bearer token check.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ratelimit.ExtractIP(r)
		if m.limiter.Blocked(ip) {
			w.Header().Set("Retry-After", strconv.Itoa(m.limiter.RetryAfterSeconds(ip)))
			pkg.ErrorWithMessage(w, http.StatusTooManyRequests, "too many failed attempts")
			return
		}

		authHeader := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			m.limiter.Fail(ip)
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}

		userID, err := m.validator.UserID(tokenString)
		if err != nil {
			m.limiter.Fail(ip)
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if m.userID != "" && userID != m.userID {
			m.limiter.Fail(ip)
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "token belongs to another user")
			return
		}
		m.limiter.Reset(ip)

		ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
