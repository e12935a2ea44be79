package pdfgen

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/fofoo/freightdesk/internal/models"
)

// Generator renders invoices as single-page A4 PDFs.
type Generator struct {
	companyName  string
	paymentPhone string
}

func New(companyName, paymentPhone string) *Generator {
	return &Generator{companyName: companyName, paymentPhone: paymentPhone}
}

func (g *Generator) Render(inv *models.Invoice) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(inv.InvoiceNumber, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, g.companyName, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "INVOICE "+inv.InvoiceNumber, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Issued: "+inv.IssueDate.Format("2006-01-02"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Due: "+inv.DueDate.Format("2006-01-02"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Bill To", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, inv.CustomerName, "", 1, "L", false, 0, "")
	if inv.ShippingMark != "" {
		pdf.CellFormat(0, 6, "Shipping mark: "+inv.ShippingMark, "", 1, "L", false, 0, "")
	}
	if inv.ContainerNumber != nil {
		pdf.CellFormat(0, 6, "Container: "+*inv.ContainerNumber, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(90, 8, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 8, "CBM", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 8, "Rate/CBM", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 8, "Total (USD)", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, it := range inv.Items {
		pdf.CellFormat(90, 8, it.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 8, it.CBM.StringFixed(3), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 8, it.RatePerCBM.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 8, it.TotalAmount.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 11)
	g.totalLine(pdf, "Subtotal (USD)", inv.Subtotal)
	if !inv.TaxAmount.IsZero() {
		g.totalLine(pdf, "Tax (USD)", inv.TaxAmount)
	}
	if !inv.DiscountAmount.IsZero() {
		g.totalLine(pdf, "Discount (USD)", inv.DiscountAmount.Neg())
	}
	g.totalLine(pdf, "Total (USD)", inv.TotalAmount)
	if !inv.TotalAmountGHS.IsZero() {
		g.totalLine(pdf, fmt.Sprintf("Total (GHS @ %s)", inv.ExchangeRate.StringFixed(3)), inv.TotalAmountGHS)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 10)
	if g.paymentPhone != "" {
		pdf.CellFormat(0, 6, "Mobile money payment: "+g.paymentPhone, "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, "Thank you for your business.", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "render pdf")
	}
	return buf.Bytes(), nil
}

func (g *Generator) totalLine(pdf *fpdf.Fpdf, label string, amount decimal.Decimal) {
	pdf.CellFormat(120, 7, label, "", 0, "R", false, 0, "")
	pdf.CellFormat(60, 7, amount.StringFixed(2), "", 1, "R", false, 0, "")
}
