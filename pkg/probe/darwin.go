// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin

package probe

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/stratastor/diskwiper/pkg/errors"
	"github.com/stratastor/diskwiper/pkg/probe/tools"
	"github.com/stratastor/diskwiper/pkg/probe/types"
	"github.com/stratastor/logger"
)

var wholeDiskLine = regexp.MustCompile(`^(/dev/disk\d+)\s+\(([a-z, ]+)\):`)

type darwinProber struct {
	logger   logger.Logger
	diskutil *tools.DiskutilExecutor

	mu         sync.RWMutex
	bootDiskID string
	bootKnown  bool
}

// NewProber constructs the platform-appropriate Prober. On Darwin this
// shells out to diskutil, parsing its "Key: Value" info text rather than
// its plist form to avoid a plist-decoding dependency for one platform.
func NewProber(l logger.Logger, cfg *types.ToolsConfig, useSudo bool) Prober {
	return &darwinProber{
		logger:   l,
		diskutil: tools.NewDiskutilExecutor(l, "", useSudo),
	}
}

func (p *darwinProber) Enumerate(ctx context.Context) ([]*types.Device, error) {
	out, err := p.diskutil.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ProbeEnumerationFailed).WithMetadata("tool", "diskutil")
	}

	var devices []*types.Device
	for _, line := range strings.Split(string(out), "\n") {
		m := wholeDiskLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		if strings.Contains(m[2], "virtual") || strings.Contains(m[2], "image") {
			continue // disk images / APFS containers are not physical media
		}

		dev, err := p.RefreshDevice(ctx, m[1])
		if err != nil {
			p.logger.Warn("failed to refresh disk, skipping", "device", m[1], "error", err)
			continue
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

func (p *darwinProber) RefreshDevice(ctx context.Context, devicePath string) (*types.Device, error) {
	out, err := p.diskutil.Info(ctx, devicePath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ProbeEnumerationFailed).WithMetadata("device", devicePath)
	}

	props := parseDiskutilInfo(string(out))
	dev := &types.Device{
		DevicePath:   devicePath,
		Model:        props["Device / Media Name"],
		DiscoveredAt: time.Now(),
		Health:       types.HealthUnknown,
		Interface:    classifyDarwinInterface(props["Protocol"]),
		Rotational:   props["Solid State"] != "Yes",
	}
	if size, ok := props["Disk Size"]; ok {
		dev.SizeBytes = parseDarwinSizeBytes(size)
	}
	dev.Type = classifyDarwinDeviceType(props["Protocol"], props["Solid State"] == "Yes")
	if serial, ok := props["Device Identifier"]; ok {
		dev.DeviceID = serial
	}
	if dev.DeviceID == "" {
		dev.DeviceID = devicePath
	}
	return dev, nil
}

// CaptureSMART has no first-class diskutil equivalent to smartctl's
// per-attribute report; SMART status is a pass/fail verdict embedded in
// `diskutil info`, so the snapshot carries only that.
func (p *darwinProber) CaptureSMART(ctx context.Context, devicePath string) (*types.SMARTSnapshot, error) {
	out, err := p.diskutil.Info(ctx, devicePath)
	if err != nil {
		return &types.SMARTSnapshot{DeviceID: devicePath, Available: false, TakenAt: time.Now()}, nil
	}

	props := parseDiskutilInfo(string(out))
	status, ok := props["SMART Status"]
	if !ok || status == "Not Supported" {
		return &types.SMARTSnapshot{DeviceID: devicePath, Available: false, TakenAt: time.Now()}, nil
	}

	snap := &types.SMARTSnapshot{DeviceID: devicePath, Available: true, TakenAt: time.Now()}
	if strings.EqualFold(status, "Verified") {
		snap.OverallStatus = "PASSED"
	} else {
		snap.OverallStatus = "FAILED"
	}
	return snap, nil
}

// HasMountedPartition asks diskutil whether the whole disk or any of its
// APFS/HFS+ slices is mounted; resolving the boot disk identifier once and
// caching it covers the common "is this the disk macOS booted from" case
// even when every partition happens to be unmounted at call time.
func (p *darwinProber) HasMountedPartition(ctx context.Context, devicePath string) (bool, error) {
	out, err := p.diskutil.Info(ctx, devicePath)
	if err != nil {
		return false, errors.Wrap(err, errors.ProbeEnumerationFailed).WithMetadata("device", devicePath)
	}
	props := parseDiskutilInfo(string(out))
	if mp, ok := props["Mount Point"]; ok && mp != "" && mp != "Not applicable (no file system)" {
		return true, nil
	}

	bootID, err := p.resolveBootDiskIdentifier(ctx)
	if err != nil {
		return false, err
	}
	return strings.TrimPrefix(devicePath, "/dev/") == bootID, nil
}

func (p *darwinProber) resolveBootDiskIdentifier(ctx context.Context) (string, error) {
	p.mu.RLock()
	if p.bootKnown {
		id := p.bootDiskID
		p.mu.RUnlock()
		return id, nil
	}
	p.mu.RUnlock()

	out, err := p.diskutil.Info(ctx, "/")
	if err != nil {
		return "", errors.Wrap(err, errors.ProbeEnumerationFailed).WithMetadata("device", "/")
	}
	props := parseDiskutilInfo(string(out))
	id := props["Part of Whole"]

	p.mu.Lock()
	p.bootDiskID, p.bootKnown = id, true
	p.mu.Unlock()
	return id, nil
}

// IsNVMe re-queries devicePath via diskutil rather than trusting an
// earlier Enumerate snapshot, consistent with the boot-disk guard's own
// rule of never reusing a stale classification for a destructive decision.
func (p *darwinProber) IsNVMe(ctx context.Context, devicePath string) (bool, error) {
	dev, err := p.RefreshDevice(ctx, devicePath)
	if err != nil {
		return false, err
	}
	return dev.IsNVMe(), nil
}

// IsRotational mirrors IsNVMe's fresh re-query.
func (p *darwinProber) IsRotational(ctx context.Context, devicePath string) (bool, error) {
	dev, err := p.RefreshDevice(ctx, devicePath)
	if err != nil {
		return false, err
	}
	return dev.IsRotational(), nil
}

func parseDiskutilInfo(output string) map[string]string {
	props := make(map[string]string)
	for _, line := range strings.Split(output, "\n") {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		props[key] = val
	}
	return props
}

func classifyDarwinInterface(protocol string) types.InterfaceType {
	switch strings.ToUpper(protocol) {
	case "SATA":
		return types.InterfaceSATA
	case "SAS":
		return types.InterfaceSAS
	case "PCI-EXPRESS", "NVME":
		return types.InterfaceNVMe
	case "USB":
		return types.InterfaceUSB
	default:
		return types.InterfaceUnknown
	}
}

func classifyDarwinDeviceType(protocol string, solidState bool) types.DeviceType {
	if strings.EqualFold(protocol, "PCI-Express") {
		return types.DeviceTypeNVMe
	}
	if solidState {
		return types.DeviceTypeSSD
	}
	if protocol != "" {
		return types.DeviceTypeHDD
	}
	return types.DeviceTypeUnknown
}

// parseDarwinSizeBytes extracts the exact byte count diskutil prints in
// parentheses, e.g. "500.3 GB (500277790720 Bytes)".
func parseDarwinSizeBytes(s string) uint64 {
	start := strings.Index(s, "(")
	end := strings.Index(s, " Bytes)")
	if start < 0 || end < 0 || end <= start {
		return 0
	}
	n, err := strconv.ParseUint(s[start+1:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
