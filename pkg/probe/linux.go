// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package probe

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/stratastor/diskwiper/pkg/errors"
	"github.com/stratastor/diskwiper/pkg/probe/parsers"
	"github.com/stratastor/diskwiper/pkg/probe/tools"
	"github.com/stratastor/diskwiper/pkg/probe/types"
	"github.com/stratastor/logger"
)

// linuxProber discovers devices via lsblk, enriches them with udevadm, and
// reads SMART data via smartctl.
type linuxProber struct {
	logger   logger.Logger
	lsblk    *tools.LsblkExecutor
	smartctl *tools.SmartctlExecutor
	udevadm  *tools.UdevadmExecutor
	checker  *tools.ToolChecker

	mu          sync.RWMutex
	blockByPath map[string]*parsers.BlockDevice
}

// NewProber constructs the platform-appropriate Prober. On Linux this
// shells out to lsblk/smartctl/udevadm; see windows.go/darwin.go for the
// other platforms.
func NewProber(l logger.Logger, cfg *types.ToolsConfig, useSudo bool) Prober {
	udevadmPath := cfg.UdevadmPath
	if udevadmPath == "" {
		udevadmPath = "udevadm"
	}
	// IsAvailable answers only from the checker's cache, so fill it once
	// here; without this, udev enrichment and SMART capture never run.
	checker := tools.NewToolChecker(l, cfg)
	checker.CheckAll()
	return &linuxProber{
		logger:      l,
		lsblk:       tools.NewLsblkExecutor(l, cfg.LsblkPath, useSudo),
		smartctl:    tools.NewSmartctlExecutor(l, cfg.SmartctlPath, useSudo),
		udevadm:     tools.NewUdevadmExecutor(l, udevadmPath, useSudo),
		checker:     checker,
		blockByPath: make(map[string]*parsers.BlockDevice),
	}
}

func (p *linuxProber) Enumerate(ctx context.Context) ([]*types.Device, error) {
	p.logger.Info("enumerating block devices")

	output, err := p.lsblk.ListDisksWithChildren(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ProbeEnumerationFailed).WithMetadata("tool", "lsblk")
	}

	blockDevices, err := parsers.ParseLsblkJSON(output)
	if err != nil {
		return nil, err
	}
	physical := parsers.FilterPhysicalDisks(blockDevices)

	p.mu.Lock()
	p.blockByPath = make(map[string]*parsers.BlockDevice, len(physical))
	for _, bd := range physical {
		p.blockByPath[bd.Path] = bd
	}
	p.mu.Unlock()

	devices := make([]*types.Device, 0, len(physical))
	for _, bd := range physical {
		dev := bd.ToDevice()
		dev.DiscoveredAt = time.Now()
		p.enrichWithUdev(ctx, dev)
		devices = append(devices, dev)
	}

	p.logger.Info("enumeration complete", "count", len(devices))
	return devices, nil
}

func (p *linuxProber) RefreshDevice(ctx context.Context, devicePath string) (*types.Device, error) {
	output, err := p.lsblk.GetDevice(ctx, devicePath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ProbeEnumerationFailed).
			WithMetadata("device", devicePath).WithMetadata("tool", "lsblk")
	}

	blockDevices, err := parsers.ParseLsblkJSON(output)
	if err != nil {
		return nil, err
	}
	if len(blockDevices) == 0 {
		return nil, errors.New(errors.ProbeEnumerationFailed, "device not found").
			WithMetadata("device", devicePath)
	}

	p.mu.Lock()
	p.blockByPath[devicePath] = blockDevices[0]
	p.mu.Unlock()

	dev := blockDevices[0].ToDevice()
	dev.DiscoveredAt = time.Now()
	p.enrichWithUdev(ctx, dev)
	return dev, nil
}

func (p *linuxProber) enrichWithUdev(ctx context.Context, dev *types.Device) {
	if !p.checker.IsAvailable("udevadm") {
		return
	}

	output, err := p.udevadm.Info(ctx, dev.DevicePath)
	if err != nil {
		p.logger.Debug("udev info failed", "device", dev.DevicePath, "error", err)
		return
	}

	props := parseUdevProperties(string(output))
	if serial, ok := props["ID_SERIAL"]; ok && dev.Serial == "" {
		dev.Serial = serial
	}
	if wwn, ok := props["ID_WWN"]; ok {
		dev.WWN = wwn
	}
	if model, ok := props["ID_MODEL"]; ok && dev.Model == "" {
		dev.Model = model
	}
	if devlinks, ok := props["DEVLINKS"]; ok {
		for _, link := range strings.Fields(devlinks) {
			if strings.Contains(link, "/dev/disk/by-id/") {
				dev.ByIDPath = link
				break
			}
		}
	}

	switch {
	case dev.Serial != "":
		dev.DeviceID = dev.Serial
	case dev.WWN != "":
		dev.DeviceID = dev.WWN
	case dev.ByIDPath != "":
		dev.DeviceID = dev.ByIDPath
	default:
		dev.DeviceID = dev.DevicePath
	}
}

func (p *linuxProber) CaptureSMART(ctx context.Context, devicePath string) (*types.SMARTSnapshot, error) {
	if !p.checker.IsAvailable("smartctl") {
		return &types.SMARTSnapshot{DeviceID: devicePath, Available: false, TakenAt: time.Now()}, nil
	}

	output, err := p.smartctl.GetAll(ctx, devicePath)
	if err != nil {
		p.logger.Debug("smartctl read failed, treating as unavailable", "device", devicePath, "error", err)
		return &types.SMARTSnapshot{DeviceID: devicePath, Available: false, TakenAt: time.Now()}, nil
	}

	snap, err := parsers.ParseSmartctlJSON(output, devicePath)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (p *linuxProber) HasMountedPartition(ctx context.Context, devicePath string) (bool, error) {
	p.mu.RLock()
	bd, ok := p.blockByPath[devicePath]
	p.mu.RUnlock()
	if ok {
		return bd.HasMountedChild(), nil
	}

	// Not in cache (e.g. guard invoked before any Enumerate call) — ask
	// lsblk directly rather than refusing to classify the device.
	output, err := p.lsblk.GetDevice(ctx, devicePath)
	if err != nil {
		return false, errors.Wrap(err, errors.ProbeEnumerationFailed).
			WithMetadata("device", devicePath)
	}
	blockDevices, err := parsers.ParseLsblkJSON(output)
	if err != nil {
		return false, err
	}
	if len(blockDevices) == 0 {
		return false, errors.New(errors.ProbeEnumerationFailed, "device not found").
			WithMetadata("device", devicePath)
	}
	return blockDevices[0].HasMountedChild(), nil
}

// IsNVMe reports devicePath's protocol from the cached lsblk row when one
// exists (populated by an earlier Enumerate/RefreshDevice), otherwise
// re-probes it directly rather than returning a stale or guessed answer.
func (p *linuxProber) IsNVMe(ctx context.Context, devicePath string) (bool, error) {
	dev, err := p.deviceFromCacheOrRefresh(ctx, devicePath)
	if err != nil {
		return false, err
	}
	return dev.IsNVMe(), nil
}

// IsRotational mirrors IsNVMe's cache-or-refresh lookup.
func (p *linuxProber) IsRotational(ctx context.Context, devicePath string) (bool, error) {
	dev, err := p.deviceFromCacheOrRefresh(ctx, devicePath)
	if err != nil {
		return false, err
	}
	return dev.IsRotational(), nil
}

func (p *linuxProber) deviceFromCacheOrRefresh(ctx context.Context, devicePath string) (*types.Device, error) {
	p.mu.RLock()
	bd, ok := p.blockByPath[devicePath]
	p.mu.RUnlock()
	if ok {
		return bd.ToDevice(), nil
	}
	return p.RefreshDevice(ctx, devicePath)
}

func parseUdevProperties(output string) map[string]string {
	props := make(map[string]string)
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			props[parts[0]] = parts[1]
		}
	}
	return props
}
