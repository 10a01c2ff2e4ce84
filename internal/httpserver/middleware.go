package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anvers-dev/blogapi/internal/model"
	"github.com/anvers-dev/blogapi/internal/store"
)

// ctxUserKey is the context key type for the authenticated user.
type ctxUserKey struct{}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// requireAuth enforces a valid bearer token, resolves its subject against
// the user table, and injects the user into the request context. One DB
// lookup per authenticated request, no caching.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				writeMessage(w, http.StatusUnauthorized, "Access token is missing or invalid")
				return
			}
			userID, err := s.auth.Parse(tokenStr)
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			u, err := s.store.GetUser(r.Context(), userID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeMessage(w, http.StatusUnauthorized, "User not found")
					return
				}
				writeServerError(w, "Error resolving user", err)
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserKey{}, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// currentUser returns the user attached by requireAuth.
func currentUser(r *http.Request) (model.User, bool) {
	u, ok := r.Context().Value(ctxUserKey{}).(model.User)
	return u, ok
}
