package receipt

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"github.com/TejasK30/edulink-sub000/models"
)

// PDFRenderer writes fee receipts as PDF files under Dir and returns the
// file path as the artifact reference.
type PDFRenderer struct {
	Dir string
}

func NewPDFRenderer(dir string) *PDFRenderer {
	return &PDFRenderer{Dir: dir}
}

// Render produces the receipt for a completed payment.
func (r *PDFRenderer) Render(rec *models.PaymentRecord, student *models.Student) (string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "EduLink - College Management", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 7, "Fee Payment Receipt", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 10, "Payment Details", "1", 1, "C", false, 0, "")
	addRow(pdf, "Transaction ID", rec.TransactionID, true)
	addRow(pdf, "Student Name", student.Name, true)
	addRow(pdf, "Student ID", student.ID, true)
	addRow(pdf, "Payment Date", rec.UpdatedAt.Format("2006-01-02"), true)
	addRow(pdf, "Payment Method", string(rec.PaymentMethod), true)

	pdf.CellFormat(0, 10, "Fee Breakdown", "1", 1, "C", false, 0, "")
	for _, fd := range rec.FeeDetails {
		addRow(pdf, string(fd.FeeCategory), fmt.Sprintf("%d %s", fd.Amount, rec.Currency), false)
	}
	if rec.IsInstallment {
		addRow(pdf, "Installment", fmt.Sprintf("%d of %d", rec.InstallmentNumber, rec.TotalInstallments), false)
		addRow(pdf, "Remaining Amount", fmt.Sprintf("%d %s", rec.RemainingAmount, rec.Currency), false)
	}

	pdf.SetFont("Arial", "B", 13)
	addRow(pdf, "Amount Paid", fmt.Sprintf("%d %s", rec.AmountPaid, rec.Currency), true)

	pdf.SetFont("Arial", "", 10)
	pdf.MultiCell(0, 5, "Thank you for your payment.", "", "L", false)
	pdf.SetY(pdf.GetY() + 12)
	pdf.CellFormat(0, 10, "This is a computer generated receipt", "", 1, "R", false, 0, "")

	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create receipt dir: %w", err)
	}
	path := filepath.Join(r.Dir, fmt.Sprintf("receipt_%s.pdf", rec.TransactionID))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("write receipt pdf: %w", err)
	}
	return path, nil
}

// addRow adds a label/value line to the receipt table.
func addRow(pdf *gofpdf.Fpdf, label, value string, isHeader bool) {
	if isHeader {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetFillColor(255, 255, 255)
	} else {
		pdf.SetFont("Arial", "", 10)
		pdf.SetFillColor(240, 240, 240)
	}
	pdf.CellFormat(55, 10, label, "1", 0, "", false, 0, "")
	pdf.CellFormat(0, 10, value, "1", 1, "", false, 0, "")
}
