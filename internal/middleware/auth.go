package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/millwork-io/shoptrak/internal/utils"
)

type contextKey string

// UserContextKey carries the validated JWT claims of the request.
const UserContextKey contextKey = "user"

// Auth verifies JWT tokens on protected routes.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := BearerToken(r)
			if tokenString == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			claims, err := utils.ValidateToken(tokenString, secret)
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly verifies the token like Auth and additionally requires the
// admin role. A valid operator token gets 403, not 401.
func AdminOnly(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := r.Context().Value(UserContextKey).(jwt.MapClaims)
			if role, _ := claims["role"].(string); role != "admin" {
				http.Error(w, "Admin role required", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// BearerToken extracts the bearer token from a request, or returns "".
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
