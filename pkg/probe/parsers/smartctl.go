// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package parsers

import (
	"encoding/json"
	"time"

	"github.com/stratastor/diskwiper/pkg/errors"
	"github.com/stratastor/diskwiper/pkg/probe/types"
)

// SmartctlJSON is the subset of `smartctl --json --all` this service reads.
type SmartctlJSON struct {
	Device struct {
		Protocol string `json:"protocol"`
	} `json:"device"`
	SmartSupport struct {
		Available bool `json:"available"`
		Enabled   bool `json:"enabled"`
	} `json:"smart_support"`
	SmartStatus struct {
		Passed bool `json:"passed"`
	} `json:"smart_status"`

	ATASmartAttributes *struct {
		Table []struct {
			ID     int    `json:"id"`
			Name   string `json:"name"`
			Value  int    `json:"value"`
			Worst  int    `json:"worst"`
			Thresh int    `json:"thresh"`
			Raw    struct {
				Value uint64 `json:"value"`
			} `json:"raw"`
		} `json:"table"`
	} `json:"ata_smart_attributes,omitempty"`

	NVMeSmartHealthInformationLog *struct {
		CriticalWarning  int    `json:"critical_warning"`
		Temperature      int    `json:"temperature"`
		AvailableSpare   int    `json:"available_spare"`
		PercentageUsed   int    `json:"percentage_used"`
		DataUnitsWritten uint64 `json:"data_units_written"`
		PowerCycles      uint64 `json:"power_cycles"`
		PowerOnHours     uint64 `json:"power_on_hours"`
		MediaErrors      uint64 `json:"media_errors"`
	} `json:"nvme_smart_health_information_log,omitempty"`

	PowerOnTime *struct {
		Hours int `json:"hours"`
	} `json:"power_on_time,omitempty"`
	PowerCycleCount *int `json:"power_cycle_count,omitempty"`
	Temperature     *struct {
		Current int `json:"current"`
	} `json:"temperature,omitempty"`
}

// ParseSmartctlJSON parses `smartctl --json --all` output into a SMARTSnapshot.
func ParseSmartctlJSON(jsonData []byte, deviceID string) (*types.SMARTSnapshot, error) {
	var smart SmartctlJSON
	if err := json.Unmarshal(jsonData, &smart); err != nil {
		return nil, errors.Wrap(err, errors.ProbeSMARTReadFailed).
			WithMetadata("device_id", deviceID).
			WithMetadata("operation", "unmarshal_smartctl_json")
	}

	snap := &types.SMARTSnapshot{
		DeviceID:   deviceID,
		Available:  smart.SmartSupport.Available && smart.SmartSupport.Enabled,
		Attributes: make(map[int]*types.SMARTAttribute),
		TakenAt:    time.Now(),
	}

	if smart.SmartStatus.Passed {
		snap.OverallStatus = "PASSED"
	} else {
		snap.OverallStatus = "FAILED"
	}

	if smart.NVMeSmartHealthInformationLog != nil {
		nvme := smart.NVMeSmartHealthInformationLog
		snap.NVMeHealth = &types.NVMeHealth{
			CriticalWarning:  nvme.CriticalWarning,
			AvailableSpare:   nvme.AvailableSpare,
			PercentUsed:      nvme.PercentageUsed,
			MediaErrors:      nvme.MediaErrors,
			DataUnitsWritten: nvme.DataUnitsWritten,
		}
		snap.Temperature = nvme.Temperature
		snap.TemperatureValid = true
		snap.PowerOnHours = nvme.PowerOnHours
		snap.PowerCycles = nvme.PowerCycles
	}

	if smart.ATASmartAttributes != nil {
		for _, attr := range smart.ATASmartAttributes.Table {
			snap.Attributes[attr.ID] = &types.SMARTAttribute{
				ID:        attr.ID,
				Name:      attr.Name,
				Value:     attr.Value,
				Worst:     attr.Worst,
				Threshold: attr.Thresh,
				RawValue:  attr.Raw.Value,
			}
			switch attr.ID {
			case 9:
				snap.PowerOnHours = attr.Raw.Value
			case 12:
				snap.PowerCycles = attr.Raw.Value
			case 194:
				snap.Temperature = int(attr.Raw.Value)
				snap.TemperatureValid = true
			}
		}
	}

	if smart.Temperature != nil {
		snap.Temperature = smart.Temperature.Current
		snap.TemperatureValid = true
	}
	if smart.PowerOnTime != nil {
		snap.PowerOnHours = uint64(smart.PowerOnTime.Hours)
	}
	if smart.PowerCycleCount != nil {
		snap.PowerCycles = uint64(*smart.PowerCycleCount)
	}

	return snap, nil
}

// DeviceTypeFromProtocol maps smartctl's reported protocol to a coarse
// device type; rotational vs SSD still needs lsblk's ROTA flag to
// disambiguate SATA.
func DeviceTypeFromProtocol(protocol string) types.DeviceType {
	switch protocol {
	case "NVMe":
		return types.DeviceTypeNVMe
	case "ATA", "SATA", "SCSI", "SAS":
		return types.DeviceTypeSSD
	default:
		return types.DeviceTypeUnknown
	}
}
