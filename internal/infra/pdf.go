package infra

// pdf.go — A4 document generation using go-pdf/fpdf.
// Renders quotes, booking summaries and invoices with:
//   - Company header (name, address, phone)
//   - Document number and dates
//   - Client block
//   - Item table (description, qty, unit price, line total)
//   - Extra charges / discounts
//   - Totals block with VAT breakdown
//   - Payment summary and signature line (invoices)
//
// Output files are saved under storagePath/{quotes,bookings,invoices}/.

import (
	"fmt"
	"os"
	"path/filepath"

	"moveops/internal/config"
	"moveops/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// PDFRenderer renders the company's printable documents.
type PDFRenderer struct {
	companyName    string
	companyAddress string
	companyPhone   string
	storagePath    string
}

func NewPDFRenderer(cfg *config.Config) *PDFRenderer {
	return &PDFRenderer{
		companyName:    cfg.CompanyName,
		companyAddress: cfg.CompanyAddress,
		companyPhone:   cfg.CompanyPhone,
		storagePath:    cfg.PDFStoragePath,
	}
}

const (
	pageMargin = 15.0
	rowH       = 6.0
)

func (r *PDFRenderer) newDoc(title string) (*fpdf.Fpdf, float64) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 2*pageMargin

	// ── Company header ───────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 8, r.companyName, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if r.companyAddress != "" {
		pdf.CellFormat(contentW, 4.5, r.companyAddress, "", 1, "L", false, 0, "")
	}
	if r.companyPhone != "" {
		pdf.CellFormat(contentW, 4.5, "Tel: "+r.companyPhone, "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, title, "", 1, "R", false, 0, "")

	pdf.SetDrawColor(120, 120, 120)
	pdf.Line(pageMargin, pdf.GetY()+1, pageW-pageMargin, pdf.GetY()+1)
	pdf.Ln(4)

	return pdf, contentW
}

func (r *PDFRenderer) clientBlock(pdf *fpdf.Fpdf, contentW float64, name, phone string, email *string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 5, "Client", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 4.5, name, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4.5, phone, "", 1, "L", false, 0, "")
	if email != nil && *email != "" {
		pdf.CellFormat(contentW, 4.5, *email, "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)
}

type pdfLine struct {
	name      string
	unit      string
	quantity  int
	unitPrice decimal.Decimal
	total     decimal.Decimal
}

func itemTable(pdf *fpdf.Fpdf, contentW float64, lines []pdfLine) {
	col1 := contentW * 0.46 // description
	col2 := contentW * 0.14 // qty
	col3 := contentW * 0.20 // unit price
	col4 := contentW * 0.20 // line total

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(col1, rowH, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(col2, rowH, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(col3, rowH, "Unit Price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(col4, rowH, "Total", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, l := range lines {
		name := l.name
		if len(name) > 48 {
			name = name[:47] + "…"
		}
		pdf.CellFormat(col1, rowH, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(col2, rowH, fmt.Sprintf("%d %s", l.quantity, l.unit), "1", 0, "C", false, 0, "")
		pdf.CellFormat(col3, rowH, l.unitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(col4, rowH, l.total.StringFixed(2), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(2)
}

func totalLine(pdf *fpdf.Fpdf, contentW float64, label, amount string, bold bool) {
	style := ""
	size := 9.0
	if bold {
		style = "B"
		size = 10.5
	}
	pdf.SetFont("Helvetica", style, size)
	pdf.CellFormat(contentW*0.70, rowH, label, "", 0, "R", false, 0, "")
	pdf.CellFormat(contentW*0.30, rowH, amount, "", 1, "R", false, 0, "")
}

func (r *PDFRenderer) write(pdf *fpdf.Fpdf, subdir, fileName string) (string, error) {
	dir := filepath.Join(r.storagePath, subdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(dir, fileName)
	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

// RenderQuotePDF generates the printable quote document and returns the
// absolute path to the file.
func (r *PDFRenderer) RenderQuotePDF(q *model.Quote) (string, error) {
	pdf, contentW := r.newDoc("QUOTE  " + q.QuoteNumber)

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 4.5, "Date: "+q.CreatedAt.Format("02/01/2006"), "", 1, "L", false, 0, "")
	validUntil := q.CreatedAt.AddDate(0, 0, q.ValidityDays)
	pdf.CellFormat(contentW, 4.5, "Valid until: "+validUntil.Format("02/01/2006"), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	r.clientBlock(pdf, contentW, q.ClientName, q.ClientPhone, q.ClientEmail)

	lines := make([]pdfLine, 0, len(q.Items))
	for _, it := range q.Items {
		lines = append(lines, pdfLine{it.Name, it.Unit, it.Quantity, it.UnitPrice, it.TotalPrice})
	}
	itemTable(pdf, contentW, lines)

	totalLine(pdf, contentW, "Subtotal:", q.Subtotal.StringFixed(2), false)
	for _, c := range q.Charges {
		totalLine(pdf, contentW, c.Description+":", c.Amount.StringFixed(2), false)
	}
	for _, d := range q.Discounts {
		label := d.Description
		if d.Type == "percentage" {
			label += " (" + d.Amount.StringFixed(0) + "%)"
		}
		totalLine(pdf, contentW, label+":", "-"+d.Amount.StringFixed(2), false)
	}
	totalLine(pdf, contentW, fmt.Sprintf("VAT (%s%%):", q.VATPercentage.StringFixed(0)), q.VATAmount.StringFixed(2), false)
	totalLine(pdf, contentW, "GRAND TOTAL:", q.GrandTotal.StringFixed(2), true)

	if q.TermsConditions != nil && *q.TermsConditions != "" {
		pdf.Ln(5)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentW, 5, "Terms & Conditions", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		pdf.MultiCell(contentW, 4, *q.TermsConditions, "", "L", false)
	}
	if q.Notes != nil && *q.Notes != "" {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(contentW, 4, *q.Notes, "", "L", false)
	}

	return r.write(pdf, "quotes", fmt.Sprintf("quote_%s.pdf", q.QuoteNumber))
}

// RenderBookingPDF generates the booking confirmation document.
func (r *PDFRenderer) RenderBookingPDF(b *model.Booking) (string, error) {
	pdf, contentW := r.newDoc("BOOKING  " + b.BookingNumber)

	pdf.SetFont("Helvetica", "", 9)
	dateLine := "Moving date: " + b.ShiftingDate.Format("02/01/2006")
	if b.ShiftingTime != "" {
		dateLine += "  " + b.ShiftingTime
	}
	pdf.CellFormat(contentW, 4.5, dateLine, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4.5, "From: "+b.PickupAddress, "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4.5, "To: "+b.DeliveryAddress, "", 1, "L", false, 0, "")
	pdf.Ln(3)

	r.clientBlock(pdf, contentW, b.ClientName, b.ClientPhone, b.ClientEmail)

	lines := make([]pdfLine, 0, len(b.Items))
	for _, it := range b.Items {
		lines = append(lines, pdfLine{it.Name, it.Unit, it.Quantity, it.UnitPrice, it.TotalPrice})
	}
	itemTable(pdf, contentW, lines)

	totalLine(pdf, contentW, "Items total:", b.ItemsTotal.StringFixed(2), false)
	for _, c := range b.Charges {
		totalLine(pdf, contentW, c.Description+":", c.Amount.StringFixed(2), false)
	}
	totalLine(pdf, contentW, fmt.Sprintf("VAT (%s%%):", b.VATPercentage.StringFixed(0)), b.VATAmount.StringFixed(2), false)
	totalLine(pdf, contentW, "GRAND TOTAL:", b.GrandTotal.StringFixed(2), true)
	totalLine(pdf, contentW, "Paid:", b.AdvanceAmount.StringFixed(2), false)
	totalLine(pdf, contentW, "Remaining:", b.RemainingAmount.StringFixed(2), false)

	if b.SpecialInstructions != nil && *b.SpecialInstructions != "" {
		pdf.Ln(5)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentW, 5, "Special Instructions", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		pdf.MultiCell(contentW, 4, *b.SpecialInstructions, "", "L", false)
	}

	return r.write(pdf, "bookings", fmt.Sprintf("booking_%s.pdf", b.BookingNumber))
}

// RenderInvoicePDF generates the invoice document, including the payment
// summary and a delivery signature block when the invoice is signed.
func (r *PDFRenderer) RenderInvoicePDF(inv *model.Invoice) (string, error) {
	pdf, contentW := r.newDoc("INVOICE  " + inv.InvoiceNumber)

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 4.5, "Issued: "+inv.CreatedAt.Format("02/01/2006"), "", 1, "L", false, 0, "")
	if inv.DueDate != nil {
		pdf.CellFormat(contentW, 4.5, "Due: "+inv.DueDate.Format("02/01/2006"), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	r.clientBlock(pdf, contentW, inv.ClientName, inv.ClientPhone, inv.ClientEmail)

	lines := make([]pdfLine, 0, len(inv.Items))
	for _, it := range inv.Items {
		lines = append(lines, pdfLine{it.Name, it.Unit, it.Quantity, it.UnitPrice, it.TotalPrice})
	}
	itemTable(pdf, contentW, lines)

	totalLine(pdf, contentW, "Subtotal:", inv.Subtotal.StringFixed(2), false)
	for _, c := range inv.Charges {
		totalLine(pdf, contentW, c.Description+":", c.Amount.StringFixed(2), false)
	}
	totalLine(pdf, contentW, fmt.Sprintf("VAT (%s%%):", inv.VATPercentage.StringFixed(0)), inv.VATAmount.StringFixed(2), false)
	totalLine(pdf, contentW, "TOTAL:", inv.TotalAmount.StringFixed(2), true)
	totalLine(pdf, contentW, "Amount paid:", inv.AmountPaid.StringFixed(2), false)
	totalLine(pdf, contentW, "Balance due:", inv.RemainingAmount.StringFixed(2), true)

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 5, "Delivery Confirmation", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if inv.DeliveryConfirmed && inv.SignedBy != nil && inv.SignedAt != nil {
		pdf.CellFormat(contentW, 4.5, fmt.Sprintf("Signed by %s on %s", *inv.SignedBy, inv.SignedAt.Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	} else {
		pdf.Ln(8)
		pdf.Line(pageMargin, pdf.GetY(), pageMargin+60, pdf.GetY())
		pdf.CellFormat(contentW, 4.5, "Signature", "", 1, "L", false, 0, "")
	}

	if inv.Notes != nil && *inv.Notes != "" {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(contentW, 4, *inv.Notes, "", "L", false)
	}

	return r.write(pdf, "invoices", fmt.Sprintf("invoice_%s.pdf", inv.InvoiceNumber))
}
