package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/civiclist/server/internal/api/problem"
	"github.com/civiclist/server/internal/auth"
)

// SessionCookieName is the HttpOnly cookie carrying the session token.
const SessionCookieName = "civiclist_token"

type contextKeySession string

const sessionClaimsKey contextKeySession = "sessionClaims"

// SessionAuth attaches session claims to the request context when a valid
// token is present, via cookie or bearer header. Requests without a valid
// token proceed as anonymous; guarded routes add RequireSession on top.
func SessionAuth(manager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				next.ServeHTTP(w, r)
				return
			}

			token := tokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := manager.Validate(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := contextWithSessionClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects anonymous requests with 401.
func RequireSession(env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if SessionClaims(r) == nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Authentication required", problem.ErrUnauthorized, env)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects requests whose session does not carry the admin role.
func RequireAdmin(env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := SessionClaims(r)
			if claims == nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Authentication required", problem.ErrUnauthorized, env)
				return
			}
			if !claims.IsAdmin() {
				problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Insufficient permissions", problem.ErrForbidden, env)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionClaims returns the claims bound to the request, or nil for
// anonymous requests.
func SessionClaims(r *http.Request) *auth.Claims {
	if r == nil {
		return nil
	}
	if claims, ok := r.Context().Value(sessionClaimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

func contextWithSessionClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, sessionClaimsKey, claims)
}

// ContextWithSessionClaims is exposed for handler tests.
func ContextWithSessionClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return contextWithSessionClaims(ctx, claims)
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && strings.TrimSpace(cookie.Value) != "" {
		return cookie.Value
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		if token, err := auth.TokenFromHeader(header); err == nil {
			return token
		}
	}
	return ""
}
