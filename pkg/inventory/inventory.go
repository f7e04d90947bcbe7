// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package inventory reconciles platform-probe results with persisted
// device records: the same serial number must map to the same device
// record across reboots and device-path renumbering.
package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stratastor/diskwiper/internal/common"
	rterrors "github.com/stratastor/diskwiper/pkg/errors"
	"github.com/stratastor/diskwiper/pkg/persistence"
	"github.com/stratastor/diskwiper/pkg/probe"
	"github.com/stratastor/diskwiper/pkg/probe/types"
	"github.com/stratastor/logger"
)

// Service reconciles probe results against the persistence store by
// serial number, falling back to a synthetic identifier when a device
// reports none.
type Service struct {
	logger logger.Logger
	prober probe.Prober
	store  persistence.Store
}

func NewService(l logger.Logger, prober probe.Prober, store persistence.Store) *Service {
	return &Service{logger: l, prober: prober, store: store}
}

// Scan enumerates current devices and reconciles each against the store,
// committing once per device so a failure partway through never leaves a
// record half-updated. The CLI's scan command and the serve-mode periodic
// rescan job both call this one entry point.
func (s *Service) Scan(ctx context.Context) ([]*persistence.DeviceRecord, error) {
	devices, err := s.prober.Enumerate(ctx)
	if err != nil {
		return nil, rterrors.Wrap(err, rterrors.ProbeEnumerationFailed)
	}

	now := time.Now().UTC()
	out := make([]*persistence.DeviceRecord, 0, len(devices))

	for _, d := range devices {
		serial, synthetic := identityOf(d)
		if synthetic {
			s.logger.Warn("device reported no serial number, using synthetic identifier",
				"device_path", d.DevicePath, "synthetic_id", serial)
		}

		existing, found, err := s.store.FindDeviceBySerial(ctx, serial)
		if err != nil {
			return nil, rterrors.Wrap(err, rterrors.InventoryPersistFailed).
				WithMetadata("serial", serial)
		}

		if found {
			existing.DevicePath = d.DevicePath
			existing.Model = d.Model
			existing.SizeBytes = d.SizeBytes
			existing.SizeHuman = humanSize(d.SizeBytes)
			existing.IsBootDisk = d.IsBootDisk
			existing.LastSeen = now
			if err := s.store.UpdateDevice(ctx, existing); err != nil {
				return nil, rterrors.Wrap(err, rterrors.InventoryPersistFailed).
					WithMetadata("device_id", existing.ID)
			}
			out = append(out, existing)
			continue
		}

		record := &persistence.DeviceRecord{
			ID:           common.UUID7(),
			SerialNumber: serial,
			SyntheticID:  synthetic,
			DevicePath:   d.DevicePath,
			Model:        d.Model,
			SizeBytes:    d.SizeBytes,
			SizeHuman:    humanSize(d.SizeBytes),
			IsBootDisk:   d.IsBootDisk,
			FirstSeen:    now,
			LastSeen:     now,
		}
		if err := s.store.InsertDevice(ctx, record); err != nil {
			return nil, rterrors.Wrap(err, rterrors.InventoryPersistFailed).
				WithMetadata("device_id", record.ID)
		}
		out = append(out, record)
	}

	return out, nil
}

// RefreshSMART captures a fresh SMART snapshot for a device record and
// persists it as structured data plus a normalized status string. A
// snapshot read failure is non-fatal: it is recorded as unavailable, not
// returned as an error, per the probe's "absence is data" contract.
func (s *Service) RefreshSMART(ctx context.Context, deviceID string) error {
	devices, err := s.store.ListDevices(ctx)
	if err != nil {
		return rterrors.Wrap(err, rterrors.InventoryPersistFailed)
	}

	var record *persistence.DeviceRecord
	for _, d := range devices {
		if d.ID == deviceID {
			record = d
			break
		}
	}
	if record == nil {
		return rterrors.New(rterrors.InventoryDeviceNotFound, deviceID)
	}

	snapshot, err := s.prober.CaptureSMART(ctx, record.DevicePath)
	if err != nil {
		s.logger.Warn("SMART capture failed, recording as unavailable", "device_id", deviceID, "error", err)
		snapshot = &types.SMARTSnapshot{DeviceID: record.DevicePath, Available: false, OverallStatus: "UNKNOWN"}
	}

	record.SMARTSnapshot = snapshot
	record.SMARTStatus = snapshot.OverallStatus
	record.LastSeen = time.Now().UTC()

	if err := s.store.UpdateDevice(ctx, record); err != nil {
		return rterrors.Wrap(err, rterrors.InventoryPersistFailed).WithMetadata("device_id", deviceID)
	}
	return nil
}

// identityOf extracts the stable identity key for a probed device: its
// serial number when present, else a deterministic synthetic identifier
// derived from the device path so re-scans of the same unidentified
// device still reconcile to one record.
func identityOf(d *types.Device) (serial string, synthetic bool) {
	if d.Serial != "" {
		return d.Serial, false
	}
	if d.WWN != "" {
		return d.WWN, false
	}
	sanitized := strings.NewReplacer("/", "_", "\\", "_", ".", "_", ":", "_").Replace(d.DevicePath)
	return "UNKNOWN_" + sanitized, true
}

// humanSize renders a byte count in the largest whole unit that keeps one
// decimal of precision, matching the "size_human" field the spec calls
// for alongside the raw byte count. No pack example imports a humanize
// library directly (only as an indirect transitive dependency of one),
// so this stays a small stdlib helper rather than wiring an unjustified
// dependency.
func humanSize(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	units := "KMGTPE"
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), units[exp])
}
