package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"
)

type contextKey string

const userIDKey contextKey = "auth.userID"

// Middleware validates a Bearer token and injects the authenticated user id
// into the request context. Requests without a valid token get 403.
func Middleware(jwtSecret string) func(http.Handler) http.Handler {
	key := []byte(jwtSecret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "Unauthenticated", http.StatusForbidden)
				return
			}

			claims := &jwt.StandardClaims{}
			token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims,
				func(t *jwt.Token) (interface{}, error) {
					if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, jwt.ErrSignatureInvalid
					}
					return key, nil
				})
			if err != nil || !token.Valid || claims.Subject == "" {
				http.Error(w, "Unauthenticated", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user id from the context, or "" if the
// request did not pass through Middleware.
func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}
