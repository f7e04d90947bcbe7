// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"encoding/json"
	"strings"

	"github.com/stratastor/diskwiper/pkg/errors"
	"github.com/stratastor/diskwiper/pkg/probe/types"
)

// LsblkJSON is the top-level shape of `lsblk --json` output.
type LsblkJSON struct {
	BlockDevices []BlockDevice `json:"blockdevices"`
}

// BlockDevice is a single device/partition node from lsblk output.
type BlockDevice struct {
	Name       string        `json:"name"`
	Path       string        `json:"path"`
	Type       string        `json:"type"`
	Size       uint64        `json:"size"`
	Vendor     *string       `json:"vendor"`
	Model      *string       `json:"model"`
	Serial     *string       `json:"serial"`
	WWN        *string       `json:"wwn"`
	Mountpoint *string       `json:"mountpoint"`
	Rota       bool          `json:"rota"`
	Tran       *string       `json:"tran"`
	Children   []BlockDevice `json:"children,omitempty"`
}

// ParseLsblkJSON parses `lsblk --json` output.
func ParseLsblkJSON(jsonData []byte) ([]*BlockDevice, error) {
	var lsblk LsblkJSON
	if err := json.Unmarshal(jsonData, &lsblk); err != nil {
		return nil, errors.Wrap(err, errors.ProbeEnumerationFailed).
			WithMetadata("operation", "unmarshal_lsblk_json")
	}

	devices := make([]*BlockDevice, len(lsblk.BlockDevices))
	for i := range lsblk.BlockDevices {
		devices[i] = &lsblk.BlockDevices[i]
	}
	return devices, nil
}

// IsPhysicalDisk returns true if this is a whole disk, not a partition or
// loop device.
func (bd *BlockDevice) IsPhysicalDisk() bool {
	return bd.Type == "disk"
}

// IsZFSVolumeDevice returns true if this is a ZFS zvol (/dev/zd*), which
// is never a wipe target since it is not a physical device.
func (bd *BlockDevice) IsZFSVolumeDevice() bool {
	return strings.HasPrefix(bd.Path, "/dev/zd")
}

// HasMountedChild reports whether any partition of this device is
// currently mounted — the core signal the boot-disk guard relies on.
func (bd *BlockDevice) HasMountedChild() bool {
	for _, child := range bd.Children {
		if child.Mountpoint != nil && *child.Mountpoint != "" {
			return true
		}
	}
	return bd.Mountpoint != nil && *bd.Mountpoint != ""
}

// DetermineInterfaceType derives transport from lsblk's TRAN column,
// falling back to path-based heuristics when TRAN is unreported.
func (bd *BlockDevice) DetermineInterfaceType() types.InterfaceType {
	if bd.Tran != nil {
		switch *bd.Tran {
		case "sata":
			return types.InterfaceSATA
		case "sas":
			return types.InterfaceSAS
		case "nvme":
			return types.InterfaceNVMe
		case "usb":
			return types.InterfaceUSB
		}
	}
	if strings.HasPrefix(bd.Path, "/dev/nvme") {
		return types.InterfaceNVMe
	}
	if bd.Model != nil && *bd.Model == "virtio" {
		return types.InterfaceVirtIO
	}
	return types.InterfaceUnknown
}

// DetermineDeviceType classifies HDD vs SSD vs NVMe using transport plus
// the ROTA (rotational) flag.
func (bd *BlockDevice) DetermineDeviceType() types.DeviceType {
	iface := bd.DetermineInterfaceType()
	if iface == types.InterfaceNVMe {
		return types.DeviceTypeNVMe
	}
	if bd.Rota {
		return types.DeviceTypeHDD
	}
	return types.DeviceTypeSSD
}

func (bd *BlockDevice) str(s *string) string {
	if s != nil {
		return *s
	}
	return ""
}

// ToDevice converts a BlockDevice into a probe Device, leaving ByIDPath
// (which only udev enrichment can fill) empty and DeviceID set to the
// device path until udev enrichment replaces it.
func (bd *BlockDevice) ToDevice() *types.Device {
	return &types.Device{
		DeviceID:   bd.Path,
		DevicePath: bd.Path,
		Serial:     bd.str(bd.Serial),
		Model:      bd.str(bd.Model),
		Vendor:     bd.str(bd.Vendor),
		WWN:        bd.str(bd.WWN),
		SizeBytes:  bd.Size,
		Type:       bd.DetermineDeviceType(),
		Interface:  bd.DetermineInterfaceType(),
		Rotational: bd.Rota,
		Health:     types.HealthUnknown,
	}
}

// FilterPhysicalDisks drops partitions, loop devices, and ZFS zvols,
// leaving only whole physical disks.
func FilterPhysicalDisks(devices []*BlockDevice) []*BlockDevice {
	var disks []*BlockDevice
	for _, dev := range devices {
		if dev.IsPhysicalDisk() && !dev.IsZFSVolumeDevice() {
			disks = append(disks, dev)
		}
	}
	return disks
}
