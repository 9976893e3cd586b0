package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopkeeper-app/shopkeeper-be/internal/models"
)

// GetUserSettings fetches the authenticated user's settings from the remote
// store. Only the auto-backup fields are decoded; private fields (API
// credentials and the like) stay on the wire and are dropped here.
func (c *Client) GetUserSettings(ctx context.Context) (models.UserSettings, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/settings", nil, nil)
	if err != nil {
		return models.UserSettings{}, fmt.Errorf("get settings: %w", err)
	}

	// The remote store serializes booleans as 0/1 and timestamps as strings.
	var raw struct {
		AutoBackupEnabled  int    `json:"auto_backup_enabled"`
		AutoBackupInterval int    `json:"auto_backup_interval"`
		AutoBackupMaxCount int    `json:"auto_backup_max_count"`
		LastBackupTime     string `json:"last_backup_time"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.UserSettings{}, fmt.Errorf("decode settings: %w", err)
	}

	settings := models.UserSettings{
		AutoBackupEnabled:  raw.AutoBackupEnabled != 0,
		AutoBackupInterval: raw.AutoBackupInterval,
		AutoBackupMaxCount: raw.AutoBackupMaxCount,
	}
	if settings.AutoBackupInterval == 0 {
		settings.AutoBackupInterval = models.DefaultIntervalMinutes
	}
	if settings.AutoBackupMaxCount == 0 {
		settings.AutoBackupMaxCount = models.DefaultMaxRetainedCount
	}
	if raw.LastBackupTime != "" {
		if t, err := parseRemoteTime(raw.LastBackupTime); err == nil {
			settings.LastBackupTime = &t
		}
	}
	return settings, nil
}

// UpdateSettings pushes a partial settings update to the remote store.
func (c *Client) UpdateSettings(ctx context.Context, patch models.SettingsPatch) error {
	body := map[string]any{}
	if patch.AutoBackupEnabled != nil {
		body["auto_backup_enabled"] = boolToInt(*patch.AutoBackupEnabled)
	}
	if patch.AutoBackupInterval != nil {
		body["auto_backup_interval"] = *patch.AutoBackupInterval
	}
	if patch.AutoBackupMaxCount != nil {
		body["auto_backup_max_count"] = *patch.AutoBackupMaxCount
	}
	if patch.LastBackupTime != nil {
		body["last_backup_time"] = patch.LastBackupTime.UTC().Format(time.RFC3339)
	}
	if len(body) == 0 {
		return nil
	}

	if _, err := c.do(ctx, http.MethodPut, "/api/settings", nil, body); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

// parseRemoteTime accepts the formats the remote store has been observed to
// emit for datetime columns.
func parseRemoteTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
