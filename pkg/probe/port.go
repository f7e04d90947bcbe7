// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package probe enumerates physical storage devices and reads their SMART
// health data. It is the only part of this service that talks to platform
// tooling (lsblk/smartctl/udevadm on Linux, WMI on Windows, diskutil on
// Darwin); everything above it — the boot-disk guard, the wipe engine, the
// inventory service — depends only on the Prober interface below.
package probe

import (
	"context"

	"github.com/stratastor/diskwiper/pkg/probe/types"
)

// Prober is the platform probe port: enumerate devices, refresh one
// device's metadata, and capture its SMART snapshot.
type Prober interface {
	// Enumerate lists all physical storage devices currently visible to
	// the OS.
	Enumerate(ctx context.Context) ([]*types.Device, error)

	// RefreshDevice re-reads a single device's metadata by path.
	RefreshDevice(ctx context.Context, devicePath string) (*types.Device, error)

	// CaptureSMART reads a SMART snapshot for a device. Returns an
	// unavailable snapshot (Available=false), not an error, when the
	// device simply doesn't support SMART — that is an expected outcome
	// on cloud block storage and some USB bridges, not a probe failure.
	CaptureSMART(ctx context.Context, devicePath string) (*types.SMARTSnapshot, error)

	// HasMountedPartition reports whether any partition of devicePath is
	// currently mounted — the signal the boot-disk guard uses to refuse
	// wiping the disk the OS is running from.
	HasMountedPartition(ctx context.Context, devicePath string) (bool, error)

	// IsNVMe reports whether devicePath speaks the NVMe protocol. A
	// first-class port method rather than a private wipe-engine helper,
	// since the engine's device-class dispatch (pass count, fast_clear
	// strategy) wants the classification re-queried fresh rather than
	// trusting a snapshot from an earlier scan.
	IsNVMe(ctx context.Context, devicePath string) (bool, error)

	// IsRotational reports whether devicePath is a spinning disk, for the
	// same reason IsNVMe is a port method rather than a Device accessor.
	IsRotational(ctx context.Context, devicePath string) (bool, error)
}
