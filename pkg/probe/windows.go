// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package probe

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/StackExchange/wmi"
	"github.com/stratastor/diskwiper/pkg/errors"
	"github.com/stratastor/diskwiper/pkg/probe/types"
	"github.com/stratastor/logger"
)

// win32DiskDrive mirrors the WMI Win32_DiskDrive class fields this probe
// reads. Field names and casing must match WMI property names exactly for
// the reflection-based decoder to populate them.
type win32DiskDrive struct {
	DeviceID      string
	Index         uint32
	Model         string
	SerialNumber  string
	Size          uint64
	InterfaceType string
	MediaType     string
}

// win32LogicalDiskToPartition mirrors the Win32_LogicalDiskToPartition
// association, used to find which physical disk index owns the volume
// Windows booted from.
type win32LogicalDiskToPartition struct {
	Antecedent string
	Dependent  string
}

type windowsProber struct {
	logger    logger.Logger
	bootIndex int
	bootKnown bool
}

// NewProber constructs the platform-appropriate Prober. On Windows, device
// enumeration and SMART-equivalent health go through WMI rather than a
// shelled-out tool.
func NewProber(l logger.Logger, cfg *types.ToolsConfig, useSudo bool) Prober {
	return &windowsProber{logger: l}
}

func (p *windowsProber) Enumerate(ctx context.Context) ([]*types.Device, error) {
	var drives []win32DiskDrive
	if err := wmi.Query("SELECT DeviceID, Index, Model, SerialNumber, Size, InterfaceType, MediaType FROM Win32_DiskDrive", &drives); err != nil {
		return nil, errors.Wrap(err, errors.ProbeEnumerationFailed).WithMetadata("source", "wmi:Win32_DiskDrive")
	}

	devices := make([]*types.Device, 0, len(drives))
	for _, d := range drives {
		dev := &types.Device{
			DeviceID:     strings.TrimSpace(d.SerialNumber),
			DevicePath:   d.DeviceID,
			Serial:       d.SerialNumber,
			Model:        d.Model,
			SizeBytes:    d.Size,
			Interface:    classifyWindowsInterface(d.InterfaceType),
			Rotational:   strings.Contains(strings.ToLower(d.MediaType), "fixed") && !strings.Contains(strings.ToLower(d.InterfaceType), "nvme"),
			DiscoveredAt: time.Now(),
			Health:       types.HealthUnknown,
		}
		if dev.DeviceID == "" {
			dev.DeviceID = d.DeviceID
		}
		dev.Type = classifyWindowsDeviceType(d.InterfaceType, d.MediaType)
		devices = append(devices, dev)
	}
	return devices, nil
}

func (p *windowsProber) RefreshDevice(ctx context.Context, devicePath string) (*types.Device, error) {
	var drives []win32DiskDrive
	query := fmt.Sprintf("SELECT DeviceID, Index, Model, SerialNumber, Size, InterfaceType, MediaType FROM Win32_DiskDrive WHERE DeviceID = '%s'", escapeWQL(devicePath))
	if err := wmi.Query(query, &drives); err != nil {
		return nil, errors.Wrap(err, errors.ProbeEnumerationFailed).WithMetadata("device", devicePath)
	}
	if len(drives) == 0 {
		return nil, errors.New(errors.ProbeEnumerationFailed, "device not found").WithMetadata("device", devicePath)
	}
	d := drives[0]
	return &types.Device{
		DeviceID:     d.SerialNumber,
		DevicePath:   d.DeviceID,
		Serial:       d.SerialNumber,
		Model:        d.Model,
		SizeBytes:    d.Size,
		Interface:    classifyWindowsInterface(d.InterfaceType),
		Type:         classifyWindowsDeviceType(d.InterfaceType, d.MediaType),
		DiscoveredAt: time.Now(),
		Health:       types.HealthUnknown,
	}, nil
}

// CaptureSMART on Windows reads the MSStorageDriver_FailurePredictStatus
// class exposed by the disk miniport driver, the closest WMI equivalent to
// smartctl's overall pass/fail; per-attribute data isn't exposed this way,
// so the snapshot only carries the pass/fail verdict.
func (p *windowsProber) CaptureSMART(ctx context.Context, devicePath string) (*types.SMARTSnapshot, error) {
	type failurePredict struct {
		PredictFailure bool
		Reason         uint32
	}
	var rows []failurePredict
	if err := wmi.QueryNamespace("SELECT PredictFailure, Reason FROM MSStorageDriver_FailurePredictStatus", &rows, `root\wmi`); err != nil {
		p.logger.Debug("SMART-equivalent WMI query failed, treating as unavailable", "device", devicePath, "error", err)
		return &types.SMARTSnapshot{DeviceID: devicePath, Available: false, TakenAt: time.Now()}, nil
	}
	if len(rows) == 0 {
		return &types.SMARTSnapshot{DeviceID: devicePath, Available: false, TakenAt: time.Now()}, nil
	}

	snap := &types.SMARTSnapshot{DeviceID: devicePath, Available: true, TakenAt: time.Now()}
	if rows[0].PredictFailure {
		snap.OverallStatus = "FAILED"
	} else {
		snap.OverallStatus = "PASSED"
	}
	return snap, nil
}

// HasMountedPartition resolves the disk index that owns the boot volume
// via Win32_LogicalDiskToPartition and compares it against the disk index
// parsed from devicePath (\\.\PHYSICALDRIVEN). If the boot disk cannot be
// resolved through WMI, disk index 0 is taken as the boot disk; only an
// unparseable devicePath is reported as an error, which the guard treats
// as a refusal.
func (p *windowsProber) HasMountedPartition(ctx context.Context, devicePath string) (bool, error) {
	idx, ok := parsePhysicalDriveIndex(devicePath)
	if !ok {
		return false, errors.New(errors.ProbeEnumerationFailed, "cannot parse physical drive index").
			WithMetadata("device", devicePath)
	}

	bootIdx, err := p.resolveBootDiskIndex(ctx)
	if err != nil {
		return false, err
	}
	return idx == bootIdx, nil
}

func (p *windowsProber) resolveBootDiskIndex(ctx context.Context) (int, error) {
	if p.bootKnown {
		return p.bootIndex, nil
	}

	// Association chain: the boot logical disk (typically C:) -> its
	// partition -> the physical disk owning that partition.
	var assoc []win32LogicalDiskToPartition
	err := wmi.Query("ASSOCIATORS OF {Win32_LogicalDisk.DeviceID='C:'} WHERE AssocClass=Win32_LogicalDiskToPartition", &assoc)
	if err != nil || len(assoc) == 0 {
		// Last-resort fallback: assume disk 0, the conventional boot
		// disk index, rather than leaving every disk unclassified.
		p.logger.Warn("failed to resolve boot disk via WMI, falling back to disk index 0", "error", err)
		p.bootIndex, p.bootKnown = 0, true
		return 0, nil
	}

	idx, ok := parseDiskIndexFromPartitionDeviceID(assoc[0].Antecedent)
	if !ok {
		p.logger.Warn("failed to parse boot partition device ID, falling back to disk index 0", "antecedent", assoc[0].Antecedent)
		idx = 0
	}
	p.bootIndex, p.bootKnown = idx, true
	return idx, nil
}

// IsNVMe re-queries devicePath via WMI rather than trusting an earlier
// Enumerate snapshot, consistent with the boot-disk guard's own rule of
// never reusing a stale classification for a destructive decision.
func (p *windowsProber) IsNVMe(ctx context.Context, devicePath string) (bool, error) {
	dev, err := p.RefreshDevice(ctx, devicePath)
	if err != nil {
		return false, err
	}
	return dev.IsNVMe(), nil
}

// IsRotational mirrors IsNVMe's fresh re-query.
func (p *windowsProber) IsRotational(ctx context.Context, devicePath string) (bool, error) {
	dev, err := p.RefreshDevice(ctx, devicePath)
	if err != nil {
		return false, err
	}
	return dev.IsRotational(), nil
}

func classifyWindowsInterface(iface string) types.InterfaceType {
	switch strings.ToUpper(iface) {
	case "SCSI":
		return types.InterfaceSAS
	case "IDE":
		return types.InterfaceSATA
	case "USB":
		return types.InterfaceUSB
	case "NVME":
		return types.InterfaceNVMe
	default:
		return types.InterfaceUnknown
	}
}

func classifyWindowsDeviceType(iface, media string) types.DeviceType {
	if strings.Contains(strings.ToUpper(iface), "NVME") {
		return types.DeviceTypeNVMe
	}
	if strings.Contains(strings.ToLower(media), "ssd") {
		return types.DeviceTypeSSD
	}
	if strings.Contains(strings.ToLower(media), "fixed") {
		return types.DeviceTypeHDD
	}
	return types.DeviceTypeUnknown
}

func escapeWQL(s string) string {
	return strings.ReplaceAll(s, `'`, `''`)
}

// parsePhysicalDriveIndex extracts N from \\.\PHYSICALDRIVEN.
func parsePhysicalDriveIndex(devicePath string) (int, bool) {
	const prefix = `\\.\PHYSICALDRIVE`
	if !strings.HasPrefix(devicePath, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(devicePath, prefix))
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseDiskIndexFromPartitionDeviceID extracts the disk index from a
// Win32_DiskPartition DeviceID of the form "Disk #0, Partition #1".
func parseDiskIndexFromPartitionDeviceID(antecedent string) (int, bool) {
	i := strings.Index(antecedent, "Disk #")
	if i < 0 {
		return 0, false
	}
	rest := antecedent[i+len("Disk #"):]
	end := strings.IndexAny(rest, ", \"")
	if end < 0 {
		end = len(rest)
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
