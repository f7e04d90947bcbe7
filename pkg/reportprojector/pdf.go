// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package reportprojector

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

// RenderPDF writes a styled PDF rendering of r to w, in the same block
// order as RenderText.
func RenderPDF(r *Report, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Wipe Report %s", r.ReportID), true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("Wipe Report %s", r.ReportID), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Generated "+r.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	section(pdf, "Identity")
	field(pdf, "Log ID", r.LogID)
	field(pdf, "Device", r.DevicePath)
	field(pdf, "Model", r.Model)
	field(pdf, "Serial", r.SerialNumber)
	field(pdf, "Size", fmt.Sprintf("%d bytes", r.SizeBytes))
	pdf.Ln(3)

	section(pdf, "Timing")
	field(pdf, "Start", r.StartTime.UTC().Format("2006-01-02 15:04:05 UTC"))
	if r.EndTime != nil {
		field(pdf, "End", r.EndTime.UTC().Format("2006-01-02 15:04:05 UTC"))
	}
	field(pdf, "Duration", fmt.Sprintf("%.1fs", r.DurationSeconds))
	pdf.Ln(3)

	section(pdf, "Method")
	field(pdf, "Method", string(r.Method))
	field(pdf, "Passes", fmt.Sprintf("%d", r.Passes))
	if r.NonCryptographic {
		warn(pdf, "Non-cryptographic sanitization: firmware-level clear, not an overwrite.")
	}
	pdf.Ln(3)

	section(pdf, "Verification")
	field(pdf, "Status", string(r.Status))
	field(pdf, "Verified", fmt.Sprintf("%t", r.Verified))
	if r.RanToCompletionOnly {
		warn(pdf, "Verified=true here means the operation ran to completion, not that a distinct verification pass confirmed the result.")
	}
	if r.ErrorMessage != "" {
		field(pdf, "Error", r.ErrorMessage)
	}
	pdf.Ln(3)

	if len(r.SMARTComparison) > 0 {
		section(pdf, "SMART Comparison (before -> after)")
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(60, 6, "Attribute", "B", 0, "L", false, 0, "")
		pdf.CellFormat(55, 6, "Before", "B", 0, "L", false, 0, "")
		pdf.CellFormat(55, 6, "After", "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, row := range r.SMARTComparison {
			style := ""
			if row.Changed {
				style = "B"
			}
			pdf.SetFont("Helvetica", style, 9)
			pdf.CellFormat(60, 6, row.Attribute, "", 0, "L", false, 0, "")
			pdf.CellFormat(55, 6, row.Before, "", 0, "L", false, 0, "")
			pdf.CellFormat(55, 6, row.After, "", 1, "L", false, 0, "")
		}
		if r.MediaDegraded {
			pdf.Ln(2)
			warn(pdf, "Media degradation signals detected: "+strings.Join(r.DegradedReasons, ", "))
		}
	}

	return pdf.Output(w)
}

func section(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
}

func field(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(35, 6, label+":", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
}

func warn(pdf *fpdf.Fpdf, message string) {
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, "Note: "+message, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
}
