// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/dionysus-app/dionysus/internal/logging"
	"github.com/dionysus-app/dionysus/internal/models"
)

// SessionCookieName is the cookie the session token is stored in
// after a browser login.
const SessionCookieName = "dionysus_session"

type contextKey string

const userContextKey contextKey = "auth_user"

// UserFromContext returns the authenticated user set by Middleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey).(*models.User)
	return user, ok
}

// ContextWithUser injects a user, used by tests and the middleware.
func ContextWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// Middleware authenticates each request from the Authorization
// header or the session cookie and injects the user into the request
// context. Unauthenticated requests get a 401.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)

		user, err := s.Authenticate(r.Context(), token)
		if err != nil {
			logging.Debug().Err(err).Str("path", r.URL.Path).Msg("Request rejected as unauthenticated")
			writeUnauthorized(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

// extractToken prefers the Authorization header over the cookie.
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "error",
		"error": map[string]string{
			"code":    "UNAUTHORIZED",
			"message": "authentication required",
		},
	})
}
