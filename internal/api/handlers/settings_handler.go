package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/shopkeeper-app/shopkeeper-be/internal/models"
	"github.com/shopkeeper-app/shopkeeper-be/internal/services"
)

// SettingsReader fetches the current user's settings from the remote store.
type SettingsReader interface {
	GetUserSettings(ctx context.Context) (models.UserSettings, error)
}

// SettingsHandler exposes the auto-backup settings. Reads go straight to the
// remote store; writes go through the backup service so the scheduler is
// reconfigured in the same step.
type SettingsHandler struct {
	reader    SettingsReader
	backupSvc services.BackupServiceProvider
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(reader SettingsReader, backupSvc services.BackupServiceProvider) *SettingsHandler {
	return &SettingsHandler{reader: reader, backupSvc: backupSvc}
}

// Get returns the current auto-backup settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.reader.GetUserSettings(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load settings")
		http.Error(w, "Failed to load settings: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(settings)
}

// Update applies a partial settings change and reconfigures the scheduler.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.backupSvc.ApplySettings(r.Context(), patch)
	if err != nil {
		log.Error().Err(err).Msg("Failed to apply settings")
		http.Error(w, "Failed to apply settings: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}
