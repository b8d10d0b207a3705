// Package pdfgen renders invoices to PDF. Rendering is pure: it reads an
// invoice snapshot and produces bytes, never touching invoice state.
package pdfgen

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"cafeshift_backend/internal/models"
)

// RenderInvoice produces a single-page PDF for an invoice, with the
// platform's bank details in the payment footer.
func RenderInvoice(invoice *models.Invoice, bank models.BankDetails) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 12, "Invoice "+invoice.Number)
	pdf.Ln(16)

	pdf.SetFont("Helvetica", "", 11)
	row := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(55, 8, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, value, "", 1, "L", false, 0, "")
	}

	row("Shift date", invoice.ShiftDate)
	row("Time", fmt.Sprintf("%s - %s", invoice.StartTime, invoice.EndTime))
	row("Hours", fmt.Sprintf("%.2f", invoice.Hours))
	row("Employees", fmt.Sprintf("%d", invoice.Headcount))
	pdf.Ln(6)

	row("Base amount", fmt.Sprintf("%.2f", invoice.BaseAmount))
	row("Platform fee", fmt.Sprintf("%.2f", invoice.PlatformFee))
	if invoice.PenaltyAmount != 0 {
		row("Penalty", fmt.Sprintf("%.2f", invoice.PenaltyAmount))
	}
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(55, 10, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 10, fmt.Sprintf("%.2f", invoice.Total), "T", 1, "L", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 6, fmt.Sprintf("Please transfer to %s, %s, IBAN %s, referencing invoice %s.",
		bank.AccountHolder, bank.BankName, bank.IBAN, invoice.Number), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}
