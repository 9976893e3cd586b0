package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/shopkeeper-app/shopkeeper-be/internal/auth"
	"github.com/shopkeeper-app/shopkeeper-be/internal/models"
	"github.com/shopkeeper-app/shopkeeper-be/internal/services"
)

// Authenticator verifies credentials against the remote API.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (models.User, error)
}

// AuthHandler handles login and logout for the agent's local API.
type AuthHandler struct {
	authenticator Authenticator
	backupSvc     services.BackupServiceProvider
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authenticator Authenticator, backupSvc services.BackupServiceProvider) *AuthHandler {
	return &AuthHandler{authenticator: authenticator, backupSvc: backupSvc}
}

// LoginPayload is the expected JSON body for logging in.
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login proxies the credentials to the remote API and, on success, issues a
// local session token and arms the backup scheduler per the user's settings.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if payload.Username == "" || payload.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.authenticator.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Remote login failed")
		http.Error(w, "Login failed", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateJWT(user)
	if err != nil {
		log.Error().Err(err).Msg("Could not issue session token")
		http.Error(w, "Could not issue session token", http.StatusInternalServerError)
		return
	}

	if err := h.backupSvc.OnLogin(r.Context()); err != nil {
		// The session is valid either way; auto backup just is not armed.
		log.Error().Err(err).Msg("Could not initialize auto backup after login")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"token": token,
		"user":  user,
	})
}

// Logout stops the scheduler. A stop failure is logged and never blocks the
// logout flow.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.backupSvc.StopAutoBackup(); err != nil {
		log.Error().Err(err).Msg("Could not stop auto backup during logout, proceeding anyway")
	}
	w.WriteHeader(http.StatusNoContent)
}
