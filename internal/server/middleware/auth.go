package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/BuildAppolis/env-manager-sub001/internal/server/handlers"
	"github.com/BuildAppolis/env-manager-sub001/internal/store"
)

// Auth checks the Bearer session token on protected routes.
//
// First-run convenience: while no master password is configured the
// store admits every operation, so the middleware does too — requiring
// a login before a password exists would dead-lock initial setup.
func Auth(logger *slog.Logger, db *store.EnvDatabase, jwtConfig handlers.JWTConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !db.PasswordConfigured() {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("missing Authorization header", "path", r.URL.Path)
				http.Error(w, "Unauthorized: missing token", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("invalid Authorization header format")
				http.Error(w, "Unauthorized: invalid token format", http.StatusUnauthorized)
				return
			}

			claims, err := handlers.ValidateSessionToken(jwtConfig, parts[1])
			if err != nil {
				logger.Warn("invalid session token", "error", err)
				http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
				return
			}

			logger.Debug("session validated", "project", claims.Project)
			next.ServeHTTP(w, r)
		})
	}
}
