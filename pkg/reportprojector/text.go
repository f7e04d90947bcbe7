// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package reportprojector

import (
	"fmt"
	"strings"
)

// RenderText produces a plain-text rendering suitable for a terminal or a
// saved .txt artifact, in the same block order the PDF renderer uses.
func RenderText(r *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Wipe Report %s\n", r.ReportID)
	fmt.Fprintf(&b, "Generated %s\n\n", r.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"))

	fmt.Fprintln(&b, "Identity")
	fmt.Fprintf(&b, "  Log ID:       %s\n", r.LogID)
	fmt.Fprintf(&b, "  Device:       %s\n", r.DevicePath)
	fmt.Fprintf(&b, "  Model:        %s\n", r.Model)
	fmt.Fprintf(&b, "  Serial:       %s\n", r.SerialNumber)
	fmt.Fprintf(&b, "  Size:         %d bytes\n\n", r.SizeBytes)

	fmt.Fprintln(&b, "Timing")
	fmt.Fprintf(&b, "  Start:        %s\n", r.StartTime.UTC().Format("2006-01-02 15:04:05 UTC"))
	if r.EndTime != nil {
		fmt.Fprintf(&b, "  End:          %s\n", r.EndTime.UTC().Format("2006-01-02 15:04:05 UTC"))
	}
	fmt.Fprintf(&b, "  Duration:     %.1fs\n\n", r.DurationSeconds)

	fmt.Fprintln(&b, "Method")
	fmt.Fprintf(&b, "  Method:       %s\n", r.Method)
	fmt.Fprintf(&b, "  Passes:       %d\n", r.Passes)
	if r.NonCryptographic {
		fmt.Fprintln(&b, "  Note:         non-cryptographic sanitization (firmware-level clear, not an overwrite)")
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "Verification")
	fmt.Fprintf(&b, "  Status:       %s\n", r.Status)
	fmt.Fprintf(&b, "  Verified:     %t\n", r.Verified)
	if r.RanToCompletionOnly {
		fmt.Fprintln(&b, "  Note:         verified=true here means the operation ran to completion, not that a distinct verification pass confirmed the result")
	}
	if r.ErrorMessage != "" {
		fmt.Fprintf(&b, "  Error:        %s\n", r.ErrorMessage)
	}
	fmt.Fprintln(&b)

	if len(r.SMARTComparison) > 0 {
		fmt.Fprintln(&b, "SMART Comparison (before -> after)")
		for _, row := range r.SMARTComparison {
			marker := " "
			if row.Changed {
				marker = "*"
			}
			fmt.Fprintf(&b, "  %s %-24s %-14s -> %-14s\n", marker, row.Attribute, row.Before, row.After)
		}
		if r.MediaDegraded {
			fmt.Fprintf(&b, "\n  WARNING: media degradation signals detected: %s\n", strings.Join(r.DegradedReasons, ", "))
		}
	}

	return b.String()
}
