// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package reportprojector derives audit artifacts from a stored wipe log
// record. Projection is a pure function of the record: the same
// structured Report backs the text, JSON, and PDF renderings, so the
// three never drift from one another.
package reportprojector

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stratastor/diskwiper/pkg/persistence"
	"github.com/stratastor/diskwiper/pkg/probe/types"
)

// comparisonAttributeNames labels the raw-value SMART attributes listed
// in ComparisonAttributes; buildComparison walks that slice for order.
var comparisonAttributeNames = map[int]string{
	5:   "Reallocated Sectors",
	197: "Current Pending Sector",
	198: "Uncorrectable Sector",
	199: "UDMA CRC Error Count",
}

// ComparisonRow is one line of the before/after SMART attribute table.
type ComparisonRow struct {
	Attribute string `json:"attribute"`
	Before    string `json:"before"`
	After     string `json:"after"`
	Changed   bool   `json:"changed"`
}

// Report is the structured projection of one wipe log record — the
// machine-consumable shape the text and PDF renderers both walk.
type Report struct {
	ReportID string `json:"report_id"`

	// Identity block
	LogID        string `json:"log_id"`
	DevicePath   string `json:"device_path"`
	Model        string `json:"model"`
	SerialNumber string `json:"serial_number"`
	SizeBytes    uint64 `json:"size_bytes"`

	// Timing block
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationSeconds float64    `json:"duration_seconds"`

	// Method block
	Method           persistence.WipeMethod `json:"method"`
	Passes           int                    `json:"passes"`
	NonCryptographic bool                   `json:"non_cryptographic"`

	// Verification block
	Status   persistence.WipeStatus `json:"status"`
	Verified bool                   `json:"verified"`
	// RanToCompletionOnly is set for fast_clear: Verified=true there
	// means the underlying firmware operation completed, not that a
	// distinct verification pass confirmed the result.
	RanToCompletionOnly bool           `json:"ran_to_completion_only"`
	VerificationData    map[string]any `json:"verification_data,omitempty"`

	// Error block (only populated for a failed record)
	ErrorMessage string `json:"error_message,omitempty"`

	// Before/after SMART comparison
	SMARTComparison []ComparisonRow `json:"smart_comparison,omitempty"`
	MediaDegraded   bool            `json:"media_degraded"`
	DegradedReasons []string        `json:"degraded_reasons,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}

// Project derives a Report from a wipe log record. generatedAt is passed
// in explicitly (callers stamp it), since the record itself carries no
// notion of "now".
func Project(r *persistence.WipeLogRecord, generatedAt time.Time) *Report {
	report := &Report{
		ReportID:         newReportID(generatedAt, r.ID),
		LogID:            r.ID,
		DevicePath:       r.DevicePath,
		Model:            r.Model,
		SerialNumber:     r.SerialNumber,
		SizeBytes:        r.SizeBytes,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		DurationSeconds:  r.DurationSeconds,
		Method:           r.Method,
		Passes:           r.Passes,
		NonCryptographic: r.Method == persistence.MethodFastClear,
		Status:           r.Status,
		Verified:         r.Verified,
		RanToCompletionOnly: r.Method == persistence.MethodFastClear,
		VerificationData:    r.VerificationData,
		ErrorMessage:        r.ErrorMessage,
		GeneratedAt:         generatedAt,
	}

	report.SMARTComparison = buildComparison(r.SMARTSnapshotBefore, r.SMARTSnapshotAfter)
	if r.SMARTSnapshotBefore != nil && r.SMARTSnapshotAfter != nil {
		report.MediaDegraded, report.DegradedReasons = r.SMARTSnapshotBefore.Degraded(r.SMARTSnapshotAfter)
	}

	return report
}

func buildComparison(before, after *types.SMARTSnapshot) []ComparisonRow {
	health := func(s *types.SMARTSnapshot) string {
		status, _ := s.EvaluateHealth()
		return fmt.Sprint(status)
	}
	rows := []ComparisonRow{
		stringRow("Model", modelPlaceholder(before), modelPlaceholder(after)),
		stringRow("Serial", modelPlaceholder(before), modelPlaceholder(after)),
		stringRow("Overall Status", statusOrUnknown(before), statusOrUnknown(after)),
		stringRow("Health", health(before), health(after)),
		temperatureRow(before, after),
		uintRow("Power-On Hours", before, after, func(s *types.SMARTSnapshot) uint64 { return s.PowerOnHours }),
		uintRow("Power Cycle Count", before, after, func(s *types.SMARTSnapshot) uint64 { return s.PowerCycles }),
	}

	for _, id := range types.ComparisonAttributes {
		rows = append(rows, attributeRow(comparisonAttributeNames[id], id, before, after))
	}

	rows = append(rows, nvmeRow("NVMe Media Errors", before, after, func(h *types.NVMeHealth) uint64 { return h.MediaErrors }))
	rows = append(rows, nvmeRow("Wear (NVMe % Used)", before, after, func(h *types.NVMeHealth) uint64 { return uint64(h.PercentUsed) }))

	return rows
}

func modelPlaceholder(s *types.SMARTSnapshot) string {
	// SMARTSnapshot itself carries no model or serial field — the wipe log
	// record does — so these rows are always identical before/after; kept in the
	// table because the comparison format calls for it explicitly.
	if s == nil {
		return "unavailable"
	}
	return "see identity block"
}

func statusOrUnknown(s *types.SMARTSnapshot) string {
	if s == nil || !s.Available {
		return "UNKNOWN"
	}
	return s.OverallStatus
}

func temperatureRow(before, after *types.SMARTSnapshot) ComparisonRow {
	b, a := "unavailable", "unavailable"
	if before != nil && before.TemperatureValid {
		b = fmt.Sprintf("%d°C", before.Temperature)
	}
	if after != nil && after.TemperatureValid {
		a = fmt.Sprintf("%d°C", after.Temperature)
	}
	return ComparisonRow{Attribute: "Temperature", Before: b, After: a, Changed: b != a}
}

func uintRow(name string, before, after *types.SMARTSnapshot, field func(*types.SMARTSnapshot) uint64) ComparisonRow {
	b, a := "unavailable", "unavailable"
	if before != nil && before.Available {
		b = fmt.Sprintf("%d", field(before))
	}
	if after != nil && after.Available {
		a = fmt.Sprintf("%d", field(after))
	}
	return ComparisonRow{Attribute: name, Before: b, After: a, Changed: b != a}
}

func attributeRow(name string, id int, before, after *types.SMARTSnapshot) ComparisonRow {
	b, a := "unavailable", "unavailable"
	if before != nil {
		if attr, ok := before.Attributes[id]; ok {
			b = fmt.Sprintf("%d", attr.RawValue)
		}
	}
	if after != nil {
		if attr, ok := after.Attributes[id]; ok {
			a = fmt.Sprintf("%d", attr.RawValue)
		}
	}
	return ComparisonRow{Attribute: name, Before: b, After: a, Changed: b != a}
}

func nvmeRow(name string, before, after *types.SMARTSnapshot, field func(*types.NVMeHealth) uint64) ComparisonRow {
	b, a := "unavailable", "unavailable"
	if before != nil && before.NVMeHealth != nil {
		b = fmt.Sprintf("%d", field(before.NVMeHealth))
	}
	if after != nil && after.NVMeHealth != nil {
		a = fmt.Sprintf("%d", field(after.NVMeHealth))
	}
	return ComparisonRow{Attribute: name, Before: b, After: a, Changed: b != a}
}

func stringRow(name, before, after string) ComparisonRow {
	return ComparisonRow{Attribute: name, Before: before, After: after, Changed: before != after}
}

// newReportID mints a lexically sortable, timestamp-prefixed report
// identifier — distinct from the device/request UUIDv7 identifiers used
// elsewhere, so a directory of rendered reports sorts by generation time
// without reading any file content. Its entropy is derived from the log
// ID, so projecting the same record at the same generatedAt yields the
// same identifier.
func newReportID(at time.Time, logID string) string {
	sum := sha256.Sum256([]byte(logID))
	id, err := ulid.New(ulid.Timestamp(at), bytes.NewReader(sum[:]))
	if err != nil {
		return at.UTC().Format("20060102T150405") + "-unavailable"
	}
	return id.String()
}
