// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package wipeguard is the single correctness-critical component of the
// service: it decides whether a device is safe to wipe. Every rule below
// fails closed — on any ambiguity, tool failure, or missing data, the
// device is classified as a boot disk and the wipe is refused.
package wipeguard

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/stratastor/diskwiper/pkg/probe"
	"github.com/stratastor/logger"
)

// rootClassMountpoints are the mount points whose presence on a device
// marks it as hosting the running operating system. On Windows this list
// plays no role — HasMountedPartition's own WMI-based resolution and the
// index-0 fallback carry that platform instead.
var rootClassMountpoints = []string{"/", "/boot", "/boot/efi"}

// Guard classifies devices as boot/non-boot. It is re-created (or at
// least re-queried) immediately before every destructive write; a
// classification from an earlier scan is never reused for that decision.
type Guard struct {
	logger logger.Logger
	prober probe.Prober
}

func NewGuard(l logger.Logger, prober probe.Prober) *Guard {
	return &Guard{logger: l, prober: prober}
}

// VerifyNotBootDisk reports whether devicePath is safe to wipe. A false
// safe value is always accompanied by a human-readable reason.
func (g *Guard) VerifyNotBootDisk(ctx context.Context, devicePath string) (safe bool, reason string) {
	devices, err := g.prober.Enumerate(ctx)
	if err != nil {
		g.logger.Error("boot-disk guard: enumeration failed, refusing all devices", "error", err)
		return false, fmt.Sprintf("device enumeration failed: %v", err)
	}

	found := false
	for _, d := range devices {
		if d.DevicePath == devicePath {
			found = true
			break
		}
	}
	if !found {
		return false, "device not present in current probe enumeration"
	}

	mounted, err := g.prober.HasMountedPartition(ctx, devicePath)
	if err != nil {
		g.logger.Error("boot-disk guard: mount check failed, refusing device", "device", devicePath, "error", err)
		return false, fmt.Sprintf("mount check failed: %v", err)
	}
	if mounted {
		return false, "device has a partition mounted by the platform probe"
	}

	mp, ok, err := g.hasRootClassMount(devicePath)
	if err != nil {
		return false, fmt.Sprintf("partition cross-check failed: %v", err)
	}
	if ok {
		return false, fmt.Sprintf("device owns root-class mount point %q (gopsutil cross-check)", mp)
	}

	return true, ""
}

// hasRootClassMount independently cross-checks the platform probe's own
// mount determination against gopsutil's partition table, so a gap in one
// signal (a race, a probe bug) doesn't by itself produce a false negative.
func (g *Guard) hasRootClassMount(devicePath string) (string, bool, error) {
	partitions, err := disk.Partitions(true)
	if err != nil {
		g.logger.Error("boot-disk guard: gopsutil partition cross-check unavailable, refusing device", "error", err)
		return "", false, err
	}

	for _, p := range partitions {
		if !belongsToDevice(p.Device, devicePath) {
			continue
		}
		for _, root := range rootClassMountpoints {
			if p.Mountpoint == root {
				return p.Mountpoint, true, nil
			}
		}
	}
	return "", false, nil
}

// belongsToDevice reports whether partitionDevice (e.g. /dev/sda1,
// /dev/nvme0n1p2) is a partition of wholeDevice (/dev/sda, /dev/nvme0n1).
func belongsToDevice(partitionDevice, wholeDevice string) bool {
	if partitionDevice == wholeDevice {
		return true
	}
	if !strings.HasPrefix(partitionDevice, wholeDevice) {
		return false
	}
	suffix := strings.TrimPrefix(partitionDevice, wholeDevice)
	if suffix == "" {
		return false
	}
	for _, c := range suffix {
		if c == 'p' || (c >= '0' && c <= '9') {
			continue
		}
		return false
	}
	return true
}
