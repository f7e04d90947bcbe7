// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package persistence

import "context"

// Store is the persistence port every core component depends on.
// Implementations must let independent wipe-log updates proceed without
// blocking one another; only the owning worker ever mutates a given log
// record, so per-record locking (not a single coarse store lock) is the
// expected shape.
type Store interface {
	InsertDevice(ctx context.Context, d *DeviceRecord) error
	FindDeviceBySerial(ctx context.Context, serial string) (*DeviceRecord, bool, error)
	UpdateDevice(ctx context.Context, d *DeviceRecord) error
	ListDevices(ctx context.Context) ([]*DeviceRecord, error)

	InsertWipeLog(ctx context.Context, r *WipeLogRecord) error
	UpdateWipeLog(ctx context.Context, r *WipeLogRecord) error
	GetWipeLog(ctx context.Context, id string) (*WipeLogRecord, bool, error)
	ListWipeLogs(ctx context.Context) ([]*WipeLogRecord, error)

	// Search returns wipe logs whose device path, serial, or model
	// contains query (case-insensitive substring match).
	Search(ctx context.Context, query string) ([]*WipeLogRecord, error)
}
