// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package types

import "time"

// SMARTSnapshot is a single point-in-time read of a device's SMART data.
// The wipe engine captures one before a wipe starts and one after it ends,
// so a report can show whether the operation itself damaged the drive.
type SMARTSnapshot struct {
	DeviceID      string `json:"device_id"`
	Available     bool   `json:"available"`
	OverallStatus string `json:"overall_status"` // PASSED, FAILED, UNKNOWN

	Attributes map[int]*SMARTAttribute `json:"attributes,omitempty"` // SATA/SAS
	NVMeHealth *NVMeHealth             `json:"nvme_health,omitempty"`

	Temperature      int  `json:"temperature"`
	TemperatureValid bool `json:"temperature_valid"`

	PowerOnHours uint64 `json:"power_on_hours"`
	PowerCycles  uint64 `json:"power_cycles"`

	TakenAt time.Time `json:"taken_at"`
}

// SMARTAttribute mirrors a single SATA/SAS SMART attribute line.
type SMARTAttribute struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Value     int    `json:"value"`
	Worst     int    `json:"worst"`
	Threshold int    `json:"threshold"`
	RawValue  uint64 `json:"raw_value"`
}

// NVMeHealth mirrors the subset of the NVMe SMART/health log page this
// service cares about for pre/post-wipe comparison.
type NVMeHealth struct {
	CriticalWarning  int    `json:"critical_warning"`
	AvailableSpare   int    `json:"available_spare"`
	PercentUsed      int    `json:"percent_used"`
	MediaErrors      uint64 `json:"media_errors"`
	DataUnitsWritten uint64 `json:"data_units_written"`
}

// ComparisonAttributes is the fixed set of SMART attributes compared
// before/after a wipe to flag drive damage caused by the wipe itself,
// rather than every attribute smartctl happens to report.
var ComparisonAttributes = []int{5, 197, 198, 199} // Reallocated, Pending, Uncorrectable, UDMA CRC

// Degraded reports whether any comparison attribute's raw value increased
// from before to after — a signal the wipe itself stressed the media.
func (s *SMARTSnapshot) Degraded(after *SMARTSnapshot) (bool, []string) {
	if s == nil || after == nil || s.Attributes == nil || after.Attributes == nil {
		return false, nil
	}
	var reasons []string
	for _, id := range ComparisonAttributes {
		before, ok := s.Attributes[id]
		if !ok {
			continue
		}
		post, ok := after.Attributes[id]
		if !ok {
			continue
		}
		if post.RawValue > before.RawValue {
			reasons = append(reasons, post.Name)
		}
	}
	if s.NVMeHealth != nil && after.NVMeHealth != nil {
		if after.NVMeHealth.MediaErrors > s.NVMeHealth.MediaErrors {
			reasons = append(reasons, "media_errors")
		}
	}
	return len(reasons) > 0, reasons
}

// Default SMART comparison thresholds, used by the health classifier when
// evaluating a freshly captured snapshot on its own (not before/after).
const (
	DefaultTempWarning  = 50
	DefaultTempCritical = 60

	DefaultReallocatedSectorsWarning  = 10
	DefaultReallocatedSectorsCritical = 50

	DefaultPendingSectorsWarning  = 5
	DefaultPendingSectorsCritical = 20

	DefaultNVMePercentUsedWarning  = 80
	DefaultNVMePercentUsedCritical = 90
)

// EvaluateHealth classifies a snapshot on its own into a HealthStatus/reason
// pair, independent of any wipe in progress.
func (s *SMARTSnapshot) EvaluateHealth() (HealthStatus, string) {
	if s == nil || !s.Available {
		return HealthUnknown, "SMART not available"
	}
	if s.OverallStatus == "FAILED" {
		return HealthFailed, "SMART overall status: FAILED"
	}

	status := HealthHealthy
	reason := ""

	if s.TemperatureValid {
		if s.Temperature >= DefaultTempCritical {
			status = HealthCritical
			reason = "temperature critical"
		} else if s.Temperature >= DefaultTempWarning {
			status = HealthWarning
			reason = "temperature warning"
		}
	}

	if attr, ok := s.Attributes[5]; ok {
		if attr.RawValue >= DefaultReallocatedSectorsCritical {
			status = HealthCritical
			reason = "reallocated sectors critical"
		} else if attr.RawValue >= DefaultReallocatedSectorsWarning && status == HealthHealthy {
			status = HealthWarning
			reason = "reallocated sectors warning"
		}
	}

	if s.NVMeHealth != nil {
		if s.NVMeHealth.CriticalWarning != 0 {
			status = HealthCritical
			reason = "NVMe critical warning flags set"
		} else if s.NVMeHealth.PercentUsed >= DefaultNVMePercentUsedCritical {
			status = HealthCritical
			reason = "NVMe endurance critical"
		} else if s.NVMeHealth.PercentUsed >= DefaultNVMePercentUsedWarning && status == HealthHealthy {
			status = HealthWarning
			reason = "NVMe endurance warning"
		}
	}

	if reason == "" {
		reason = "all checks passed"
	}
	return status, reason
}
