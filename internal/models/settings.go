package models

import "time"

// UserSettings is the slice of the remote settings record the agent cares
// about. The remote record also carries private fields (API credentials,
// display preferences); those never leave the settings store and are never
// part of a snapshot.
type UserSettings struct {
	AutoBackupEnabled  bool       `json:"auto_backup_enabled"`
	AutoBackupInterval int        `json:"auto_backup_interval"`
	AutoBackupMaxCount int        `json:"auto_backup_max_count"`
	LastBackupTime     *time.Time `json:"last_backup_time"`
}

// SettingsPatch is a partial settings update; nil fields are left untouched
// by the remote store.
type SettingsPatch struct {
	AutoBackupEnabled  *bool      `json:"auto_backup_enabled,omitempty"`
	AutoBackupInterval *int       `json:"auto_backup_interval,omitempty"`
	AutoBackupMaxCount *int       `json:"auto_backup_max_count,omitempty"`
	LastBackupTime     *time.Time `json:"last_backup_time,omitempty"`
}
