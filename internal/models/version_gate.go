package models

import (
	"time"

	"github.com/evn/appgate/internal/gate"
)

// VersionGate is the per-platform rollout row. Versions are stored as
// strings exactly as operators entered them; parsing happens at check time.
type VersionGate struct {
	ID                  int       `json:"id" db:"id"`
	Platform            string    `json:"platform" db:"platform"`
	LatestVersion       string    `json:"latest_version" db:"latest_version"`
	MinimumVersion      string    `json:"minimum_version" db:"minimum_version"`
	ForceMinimumVersion string    `json:"force_minimum_version" db:"force_minimum_version"`
	StoreURL            string    `json:"store_url" db:"store_url"`
	MaintenanceMode     bool      `json:"maintenance_mode" db:"maintenance_mode"`
	MaintenanceMessage  string    `json:"maintenance_message,omitempty" db:"maintenance_message"`
	ReleaseNotes        string    `json:"release_notes,omitempty" db:"release_notes"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

type VersionCheckRequest struct {
	Platform       string `json:"platform"` // 'android', 'ios' or 'web'
	CurrentVersion string `json:"current_version"`
	DeviceInfo     string `json:"device_info,omitempty"`
}

type VersionCheckResponse struct {
	Status              gate.Status `json:"status"`
	LatestVersion       string      `json:"latest_version,omitempty"`
	MinimumVersion      string      `json:"minimum_version,omitempty"`
	ForceMinimumVersion string      `json:"force_minimum_version,omitempty"`
	StoreURL            string      `json:"store_url,omitempty"`
	Message             string      `json:"message,omitempty"`
	ReleaseNotes        string      `json:"release_notes,omitempty"`
}

// Gate event types pushed to subscribers. Snapshots replay the current
// state on connect; the other two follow operator changes.
const (
	EventGateSnapshot = "gate_snapshot"
	EventGateUpdated  = "gate_updated"
	EventGateDeleted  = "gate_deleted"
)

// GateEvent is broadcast over the event channel and the websocket stream.
type GateEvent struct {
	Type      string       `json:"type"`
	Platform  string       `json:"platform"`
	Gate      *VersionGate `json:"gate,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}
