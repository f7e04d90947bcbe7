// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package reportprojector

import (
	"bytes"
	"testing"
	"time"

	"github.com/stratastor/diskwiper/pkg/persistence"
	"github.com/stratastor/diskwiper/pkg/probe/types"
	"github.com/stretchr/testify/require"
)

func sampleRecord() *persistence.WipeLogRecord {
	end := time.Date(2026, 7, 30, 12, 5, 0, 0, time.UTC)
	return &persistence.WipeLogRecord{
		ID:           "log-1",
		DevicePath:   "/dev/sda",
		Model:        "Example SSD 500GB",
		SerialNumber: "SN12345",
		SizeBytes:    500 << 30,
		Method:       persistence.MethodZeros,
		Passes:       1,
		Status:       persistence.StatusCompleted,
		StartTime:    end.Add(-5 * time.Minute),
		EndTime:      &end,
		DurationSeconds: 300,
		ProgressPercent: 100,
		Verified:        true,
		SMARTSnapshotBefore: &types.SMARTSnapshot{
			Available:     true,
			OverallStatus: "PASSED",
			Attributes: map[int]*types.SMARTAttribute{
				5: {ID: 5, Name: "Reallocated Sectors", RawValue: 0},
			},
			PowerOnHours: 1000,
		},
		SMARTSnapshotAfter: &types.SMARTSnapshot{
			Available:     true,
			OverallStatus: "PASSED",
			Attributes: map[int]*types.SMARTAttribute{
				5: {ID: 5, Name: "Reallocated Sectors", RawValue: 2},
			},
			PowerOnHours: 1000,
		},
	}
}

func TestProject_BuildsComparisonAndFlagsDegradation(t *testing.T) {
	rec := sampleRecord()
	report := Project(rec, time.Date(2026, 7, 30, 12, 6, 0, 0, time.UTC))

	require.Equal(t, "log-1", report.LogID)
	require.NotEmpty(t, report.ReportID)
	require.True(t, report.MediaDegraded)
	require.Contains(t, report.DegradedReasons, "Reallocated Sectors")

	found := false
	for _, row := range report.SMARTComparison {
		if row.Attribute == "Reallocated Sectors" {
			found = true
			require.True(t, row.Changed)
			require.Equal(t, "0", row.Before)
			require.Equal(t, "2", row.After)
		}
	}
	require.True(t, found)
}

func TestProject_FastClearMarkedNonCryptographic(t *testing.T) {
	rec := sampleRecord()
	rec.Method = persistence.MethodFastClear
	report := Project(rec, time.Now().UTC())

	require.True(t, report.NonCryptographic)
	require.True(t, report.RanToCompletionOnly)
}

func TestRenderText_ContainsKeyBlocks(t *testing.T) {
	report := Project(sampleRecord(), time.Now().UTC())
	text := RenderText(report)

	require.Contains(t, text, "Identity")
	require.Contains(t, text, "Timing")
	require.Contains(t, text, "Method")
	require.Contains(t, text, "Verification")
	require.Contains(t, text, "SMART Comparison")
	require.Contains(t, text, "/dev/sda")
}

func TestRenderPDF_ProducesNonEmptyOutput(t *testing.T) {
	report := Project(sampleRecord(), time.Now().UTC())
	var buf bytes.Buffer
	require.NoError(t, RenderPDF(report, &buf))
	require.Greater(t, buf.Len(), 0)
	require.Equal(t, "%PDF", string(buf.Bytes()[:4]))
}
