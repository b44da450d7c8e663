package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/umx-campus/accesogo/internal/utils"
)

type contextKey string

const GuardContextKey contextKey = "guard"

// AuthMiddleware verifies JWT tokens and stores the resolved claims in the
// request context.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			// Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := utils.ValidateToken(parts[1], jwtSecret)
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), GuardContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
