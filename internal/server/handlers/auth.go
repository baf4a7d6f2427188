package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BuildAppolis/env-manager-sub001/internal/store"
	"github.com/BuildAppolis/env-manager-sub001/pkg/api"
)

// AuthHandler serves auth status and login.
type AuthHandler struct {
	logger    *slog.Logger
	db        *store.EnvDatabase
	jwtConfig JWTConfig
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(logger *slog.Logger, db *store.EnvDatabase, jwtConfig JWTConfig) *AuthHandler {
	return &AuthHandler{
		logger:    logger,
		db:        db,
		jwtConfig: jwtConfig,
	}
}

// Status handles GET /api/v1/auth/status.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := api.AuthStatusResponse{
		Authenticated:      h.db.IsAuthenticated(),
		PasswordConfigured: h.db.PasswordConfigured(),
	}
	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Login handles POST /api/v1/auth/login. A successful password check
// unlocks the store for the process and returns a session token for
// subsequent requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode login request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Password == "" {
		sendError(h.logger, w, "password is required", http.StatusBadRequest)
		return
	}

	if err := h.db.Authenticate(req.Password); err != nil {
		if errors.Is(err, store.ErrInvalidPassword) {
			h.logger.Warn("login failed")
			sendError(h.logger, w, "invalid password", http.StatusUnauthorized)
			return
		}
		sendStoreError(h.logger, w, err)
		return
	}

	token, expiresIn, err := GenerateSessionToken(h.jwtConfig, h.db.Path())
	if err != nil {
		sendStoreError(h.logger, w, err)
		return
	}

	h.logger.Info("session opened")
	sendJSON(h.logger, w, api.TokenResponse{
		AccessToken: token,
		ExpiresIn:   expiresIn,
	}, http.StatusOK)
}
