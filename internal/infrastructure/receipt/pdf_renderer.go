package receipt

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"gradvillage.backend/internal/domain/entities"
	"gradvillage.backend/pkg/money"
)

// PDFRenderer renders tax receipts as single-page Letter PDFs
type PDFRenderer struct{}

// NewPDFRenderer creates a renderer
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// ContentType returns the MIME type of rendered documents
func (PDFRenderer) ContentType() string { return "application/pdf" }

// Extension returns the file extension of rendered documents
func (PDFRenderer) Extension() string { return ".pdf" }

// Render produces the receipt document. Output depends only on the receipt.
func (PDFRenderer) Render(r *entities.TaxReceipt) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("receipt is required")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetCreationDate(r.IssuedAt)
	pdf.SetModificationDate(r.IssuedAt)
	pdf.SetCatalogSort(true)
	pdf.SetTitle("Tax Receipt "+r.ReceiptNumber, true)
	pdf.SetAuthor(r.NonprofitName, true)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(r.NonprofitName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if r.NonprofitAddress != "" {
		pdf.MultiCell(0, 5, tr(r.NonprofitAddress), "", "L", false)
	}
	pdf.CellFormat(0, 5, "EIN: "+r.NonprofitEIN, "", 1, "L", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Official Donation Receipt", "B", 1, "L", false, 0, "")
	pdf.Ln(4)

	rows := [][2]string{
		{"Receipt number", r.ReceiptNumber},
		{"Date issued", r.IssuedAt.Format("January 2, 2006")},
		{"Donation date", r.DonationDate.Format("January 2, 2006")},
		{"Received from", r.DonorName},
		{"Email", r.DonorEmail},
		{"Description", r.Description},
		{"Amount", money.Format(r.Amount, r.Currency)},
	}
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(45, 7, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 7, tr(row[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, tr(strings.Join([]string{
		fmt.Sprintf("%s is a tax-exempt organization under section 501(c)(3) of the Internal Revenue Code.", r.NonprofitName),
		"No goods or services were provided in exchange for this contribution.",
		"Please keep this receipt for your tax records.",
	}, " ")), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt %s: %w", r.ReceiptNumber, err)
	}
	return buf.Bytes(), nil
}
