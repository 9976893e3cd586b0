package models

import "time"

// ArtifactStatus describes the durability state of a backup file.
type ArtifactStatus string

const (
	// ArtifactCommitted is a fully written, renamed-in-place backup file.
	ArtifactCommitted ArtifactStatus = "committed"
	// ArtifactPending is a temp file from a write that never finished. It is
	// discarded at startup and never shown to clients.
	ArtifactPending ArtifactStatus = "pending"
)

// BackupArtifact is one backup file as the catalog sees it. The ID is the
// artifact's UTC second timestamp, which is unique per user.
type BackupArtifact struct {
	ID            string         `json:"id"`
	OwnerUsername string         `json:"ownerUsername"`
	FileName      string         `json:"fileName"`
	Path          string         `json:"-"` // server-side only
	SizeBytes     int64          `json:"sizeBytes"`
	Status        ArtifactStatus `json:"status"`
	CreatedAt     time.Time      `json:"createdAt"`
}
