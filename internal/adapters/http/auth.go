package httpadapter

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/documind-ai/documind/internal/core/domain"
)

type userContextKey struct{}

func userFromContext(ctx context.Context) (domain.AuthenticatedUser, bool) {
	user, ok := ctx.Value(userContextKey{}).(domain.AuthenticatedUser)
	return user, ok
}

// authMiddleware validates the bearer token and attaches the normalized
// identity to the request context. Everything past this point trusts
// the AuthenticatedUser and never re-validates tokens.
func (rt *Router) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(
			strings.TrimPrefix(auth, "Bearer "),
			claims,
			func(t *jwt.Token) (any, error) { return rt.jwtSecret, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		)
		if err != nil || !token.Valid {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}

		subject, _ := claims["sub"].(string)
		if subject == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token claims"})
			return
		}
		email, _ := claims["email"].(string)

		user := domain.AuthenticatedUser{ID: subject, Email: email}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey{}, user)))
	}
}
