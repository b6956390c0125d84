package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const hostContextKey contextKey = "host"

// Middleware rejects requests without a valid bearer token and stores the
// claims on the request context.
func Middleware(tokens *Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w, "unauthorized")
				return
			}
			claims, err := tokens.Validate(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), hostContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// GetHost returns the authenticated host's claims, or nil.
func GetHost(ctx context.Context) *Claims {
	claims, _ := ctx.Value(hostContextKey).(*Claims)
	return claims
}

// WithHost returns ctx carrying claims.
func WithHost(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, hostContextKey, claims)
}
