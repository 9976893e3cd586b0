package models

import (
	"encoding/json"
	"time"
)

// EntityKinds are the business collections included in every snapshot.
// Per-user settings (and the API credentials they contain) are deliberately
// not on this list and must never be added to it.
var EntityKinds = []string{
	"products",
	"suppliers",
	"customers",
	"employees",
	"purchases",
	"sales",
	"returns",
	"income",
	"remittances",
}

// ExportMeta is the metadata envelope at the head of every snapshot.
type ExportMeta struct {
	Username   string    `json:"username"`
	ExportedAt time.Time `json:"exportedAt"`
	AppVersion string    `json:"appVersion"`
}

// SnapshotDocument is the serialized payload of one backup: every business
// entity collection for a single user, carried as the remote API's full
// records.
type SnapshotDocument struct {
	ExportMeta ExportMeta                   `json:"exportMeta"`
	Entities   map[string][]json.RawMessage `json:"entities"`
}
