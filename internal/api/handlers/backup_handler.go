package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shopkeeper-app/shopkeeper-be/internal/backup"
	"github.com/shopkeeper-app/shopkeeper-be/internal/services"
)

// BackupHandler handles HTTP requests related to backups.
type BackupHandler struct {
	service services.BackupServiceProvider
}

// NewBackupHandler creates a new BackupHandler.
func NewBackupHandler(service services.BackupServiceProvider) *BackupHandler {
	return &BackupHandler{service: service}
}

// List returns the committed backup artifacts, newest first.
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	artifacts, err := h.service.GetBackupList()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list backups")
		http.Error(w, "Failed to list backups: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(artifacts)
}

// Create runs one manual backup and reports the result synchronously. A
// backup already in flight yields 409 rather than a second pipeline.
func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	artifact, err := h.service.PerformBackup()
	if err != nil {
		if errors.Is(err, backup.ErrBackupInProgress) {
			http.Error(w, "A backup is already in progress", http.StatusConflict)
			return
		}
		log.Error().Err(err).Msg("Manual backup failed")
		http.Error(w, "Backup failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(artifact)
}

// DeleteAll removes every backup artifact for the current user.
func (h *BackupHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.DeleteAllBackups()
	if err != nil {
		log.Error().Err(err).Msg("Failed to delete backups")
		http.Error(w, "Failed to delete backups: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"deleted": deleted})
}

// NextBackup reports the countdown until the next scheduled backup.
func (h *BackupHandler) NextBackup(w http.ResponseWriter, r *http.Request) {
	remaining, scheduled := h.service.TimeUntilNextBackup()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"scheduled":        scheduled,
		"remainingSeconds": int(remaining / time.Second),
		"display":          h.service.FormatTimeUntilNextBackup(),
	})
}
