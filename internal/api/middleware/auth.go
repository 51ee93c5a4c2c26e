package middleware

import (
	"context"
	"net/http"

	"github.com/citybeat-app/server/internal/api/problem"
	"github.com/citybeat-app/server/internal/auth"
)

const (
	claimsKey contextKey = "auth_claims"
)

// ClaimsFromContext returns the verified token claims for the request, or nil
// when the request went through an unauthenticated route.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	if claims, ok := ctx.Value(claimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// AccountULID is a shortcut for the authenticated account's ULID.
func AccountULID(ctx context.Context) string {
	if claims := ClaimsFromContext(ctx); claims != nil {
		return claims.Subject
	}
	return ""
}

// IsAdmin reports whether the request carries an admin token.
func IsAdmin(ctx context.Context) bool {
	if claims := ClaimsFromContext(ctx); claims != nil {
		return claims.Admin
	}
	return false
}

// RequireAuth verifies the bearer token and stores its claims in the request
// context. Every role decision downstream reads those claims; handlers never
// parse tokens themselves.
func RequireAuth(manager *auth.JWTManager, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(manager, r)
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Authentication required", err, env)
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin is RequireAuth plus an admin role check. Missing or bad
// credentials stay 401; a valid non-admin token gets 403.
func RequireAdmin(manager *auth.JWTManager, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(manager, r)
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Authentication required", err, env)
				return
			}
			if !claims.Admin {
				problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Admin access required", nil, env)
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(manager *auth.JWTManager, r *http.Request) (*auth.Claims, error) {
	token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}
	return manager.Validate(token)
}
