// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package persistence defines the storage port the rest of the service
// depends on — device records and wipe-log records — plus two adapters:
// an in-memory store for tests and a JSON-file store for the
// CLI/daemon. The relational driver the original system used is an
// explicit external collaborator, out of scope here.
package persistence

import (
	"time"

	"github.com/stratastor/diskwiper/pkg/probe/types"
)

// DeviceRecord is one physically distinct disk ever seen by a scan.
type DeviceRecord struct {
	ID           string             `json:"id"`
	SerialNumber string             `json:"serial_number"`
	SyntheticID  bool               `json:"synthetic_id"` // true when SerialNumber was derived from DevicePath
	DevicePath   string             `json:"device_path"`
	Model        string             `json:"model"`
	SizeBytes    uint64             `json:"size_bytes"`
	SizeHuman    string             `json:"size_human"`
	IsBootDisk   bool               `json:"is_boot_disk"`
	SMARTStatus  string             `json:"smart_status"`
	SMARTSnapshot *types.SMARTSnapshot `json:"smart_snapshot,omitempty"`
	FirstSeen    time.Time          `json:"first_seen"`
	LastSeen     time.Time          `json:"last_seen"`
}

// WipeMethod is the closed set of overwrite strategies a wipe log may
// record. "ones" exists only as a pass within "dod"; the coordinator never
// accepts it directly from an operator.
type WipeMethod string

const (
	MethodZeros     WipeMethod = "zeros"
	MethodOnes      WipeMethod = "ones"
	MethodRandom    WipeMethod = "random"
	MethodDoD       WipeMethod = "dod"
	MethodBSI       WipeMethod = "bsi"
	MethodFastClear WipeMethod = "fast_clear"
)

// WipeStatus is the wipe log's state machine. Only forward transitions are
// legal: pending -> in_progress -> {completed, failed}.
type WipeStatus string

const (
	StatusPending    WipeStatus = "pending"
	StatusInProgress WipeStatus = "in_progress"
	StatusCompleted  WipeStatus = "completed"
	StatusFailed     WipeStatus = "failed"
)

// WipeLogRecord is one wipe attempt, append-only once it reaches a
// terminal state. Identity fields are frozen copies taken at start time,
// independent of whatever the device record looks like later.
type WipeLogRecord struct {
	ID     string `json:"id"`
	DiskID string `json:"disk_id"`

	DevicePath   string `json:"device_path"`
	Model        string `json:"model"`
	SerialNumber string `json:"serial_number"`
	SizeBytes    uint64 `json:"size_bytes"`

	SMARTSnapshotBefore *types.SMARTSnapshot `json:"smart_snapshot_before,omitempty"`
	SMARTSnapshotAfter  *types.SMARTSnapshot `json:"smart_snapshot_after,omitempty"`

	Method WipeMethod `json:"method"`
	Passes int        `json:"passes"`
	Status WipeStatus `json:"status"`

	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationSeconds float64    `json:"duration_seconds"`

	ProgressPercent float64 `json:"progress_percent"`
	ErrorMessage    string  `json:"error_message,omitempty"`

	Verified         bool           `json:"verified"`
	VerificationData map[string]any `json:"verification_data,omitempty"`
}

// Terminal reports whether the record is in a state that must never
// change again.
func (r *WipeLogRecord) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}
