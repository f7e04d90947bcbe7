// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package types

import "time"

// DeviceType identifies the storage medium, which drives wipe-method
// eligibility (fast_clear strategy selection, SMART attribute set).
type DeviceType string

const (
	DeviceTypeUnknown DeviceType = "UNKNOWN"
	DeviceTypeHDD     DeviceType = "HDD"
	DeviceTypeSSD     DeviceType = "SSD"
	DeviceTypeNVMe    DeviceType = "NVME"
)

// InterfaceType is the disk transport/protocol as reported by lsblk's TRAN
// column or platform equivalent.
type InterfaceType string

const (
	InterfaceUnknown InterfaceType = "UNKNOWN"
	InterfaceSATA    InterfaceType = "SATA"
	InterfaceSAS     InterfaceType = "SAS"
	InterfaceNVMe    InterfaceType = "NVME"
	InterfaceUSB     InterfaceType = "USB"
	InterfaceVirtIO  InterfaceType = "VIRTIO"
)

// HealthStatus is the overall SMART-derived health assessment.
type HealthStatus string

const (
	HealthUnknown  HealthStatus = "UNKNOWN"
	HealthHealthy  HealthStatus = "HEALTHY"
	HealthWarning  HealthStatus = "WARNING"
	HealthCritical HealthStatus = "CRITICAL"
	HealthFailed   HealthStatus = "FAILED"
)

// Device is a physical storage device as seen by the platform probe. It is
// deliberately thinner than a full disk-inventory record: no pool
// membership, no topology — just what a wipe needs to classify and act on
// a device safely.
type Device struct {
	DeviceID   string `json:"device_id"`   // Serial, else WWN, else by-id path, else DevicePath
	DevicePath string `json:"device_path"` // e.g. /dev/sda, \\.\PHYSICALDRIVE0
	ByIDPath   string `json:"by_id_path,omitempty"`
	WWN        string `json:"wwn,omitempty"`
	Serial     string `json:"serial,omitempty"`
	Model      string `json:"model,omitempty"`
	Vendor     string `json:"vendor,omitempty"`

	Type       DeviceType    `json:"type"`
	Interface  InterfaceType `json:"interface"`
	Rotational bool          `json:"rotational"`
	SizeBytes  uint64        `json:"size_bytes"`

	// IsBootDisk is not filled in by any probe, and the boot-disk guard
	// does not write its per-request classification back here, so it is
	// false on every enumerated device; the guard alone decides whether a
	// device may be wiped.
	IsBootDisk bool `json:"is_boot_disk"`

	Health       HealthStatus `json:"health"`
	HealthReason string       `json:"health_reason,omitempty"`

	DiscoveredAt time.Time `json:"discovered_at"`
}

// IsNVMe reports whether the device speaks the NVMe protocol — drives
// fast_clear's "nvme format" strategy and which SMART parser to use.
func (d *Device) IsNVMe() bool {
	return d.Type == DeviceTypeNVMe || d.Interface == InterfaceNVMe
}

// IsSSD reports whether the device is flash-based but not NVMe — drives
// fast_clear's TRIM-plus-edge-overwrite strategy.
func (d *Device) IsSSD() bool {
	return d.Type == DeviceTypeSSD && !d.Rotational
}

// IsRotational reports whether the device is a spinning disk — fast_clear
// has no shortcut here and falls back to edge overwrite only.
func (d *Device) IsRotational() bool {
	return d.Rotational || d.Type == DeviceTypeHDD
}
