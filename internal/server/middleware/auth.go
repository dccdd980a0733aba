// Package middleware provides HTTP middleware for the recommender API.
package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// ErrInvalidToken is returned by validators for a wrong or empty token.
var ErrInvalidToken = errors.New("invalid token")

// TokenValidator checks bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) error
}

// StaticToken accepts exactly one shared secret.
type StaticToken string

// ValidateToken compares in constant time. An empty StaticToken rejects
// everything.
func (s StaticToken) ValidateToken(tokenString string) error {
	if s == "" || tokenString == "" {
		return ErrInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(s), []byte(tokenString)) != 1 {
		return ErrInvalidToken
	}
	return nil
}

// AuthMiddleware rejects requests without a valid "Authorization: Bearer"
// token.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// Handle case-insensitive "Bearer" prefix
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if err := validator.ValidateToken(strings.TrimSpace(parts[1])); err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
