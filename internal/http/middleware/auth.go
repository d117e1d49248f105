package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.opencensus.io/trace"

	"github.com/simulai/simulai/internal/domain"
)

// AccessTokenCookie carries the JWT issued at login
const AccessTokenCookie = "accessToken"

// Authenticator resolves an access token to the caller it was issued for
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
}

// TokenFromRequest reads the access token from the cookie, then from a Bearer header
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// RequireAuth rejects requests without a valid access token and stores the
// caller on the request context
func RequireAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				unauthorized(w, "Authentication required")
				return
			}

			principal, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				unauthorized(w, "Invalid or expired token")
				return
			}

			if span := trace.FromContext(r.Context()); span != nil {
				span.AddAttributes(
					trace.StringAttribute("user.id", principal.UserID),
					trace.StringAttribute("user.role", string(principal.Role)),
				)
			}
			next.ServeHTTP(w, r.WithContext(domain.WithPrincipal(r.Context(), principal)))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
