package invoices

import (
	"fmt"
	"strings"

	"github.com/fofoo/freightdesk/internal/models"
)

func invoiceReadyEmail(inv *models.Invoice, name string) (subject, text, html string) {
	subject = fmt.Sprintf("Invoice %s - %s", inv.InvoiceNumber, inv.TotalAmount.StringFixed(2)+" USD")

	var tb strings.Builder
	fmt.Fprintf(&tb, "Dear %s,\n\n", name)
	fmt.Fprintf(&tb, "Your invoice %s has been issued.\n\n", inv.InvoiceNumber)
	for _, it := range inv.Items {
		fmt.Fprintf(&tb, "  %s  %s CBM  %s USD\n", it.Description, it.CBM.StringFixed(3), it.TotalAmount.StringFixed(2))
	}
	fmt.Fprintf(&tb, "\nTotal: %s USD", inv.TotalAmount.StringFixed(2))
	if !inv.TotalAmountGHS.IsZero() {
		fmt.Fprintf(&tb, " (%s GHS at %s)", inv.TotalAmountGHS.StringFixed(2), inv.ExchangeRate.StringFixed(3))
	}
	fmt.Fprintf(&tb, "\nDue date: %s\n\nThank you for shipping with us.\n", inv.DueDate.Format("2 January 2006"))
	text = tb.String()

	var hb strings.Builder
	fmt.Fprintf(&hb, "<p>Dear %s,</p><p>Your invoice <strong>%s</strong> has been issued.</p>", name, inv.InvoiceNumber)
	hb.WriteString("<table border=\"1\" cellpadding=\"6\" cellspacing=\"0\"><tr><th>Description</th><th>CBM</th><th>Amount (USD)</th></tr>")
	for _, it := range inv.Items {
		fmt.Fprintf(&hb, "<tr><td>%s</td><td>%s</td><td>%s</td></tr>", it.Description, it.CBM.StringFixed(3), it.TotalAmount.StringFixed(2))
	}
	fmt.Fprintf(&hb, "<tr><td colspan=\"2\"><strong>Total</strong></td><td><strong>%s</strong></td></tr></table>", inv.TotalAmount.StringFixed(2))
	if !inv.TotalAmountGHS.IsZero() {
		fmt.Fprintf(&hb, "<p>%s GHS at rate %s</p>", inv.TotalAmountGHS.StringFixed(2), inv.ExchangeRate.StringFixed(3))
	}
	fmt.Fprintf(&hb, "<p>Due date: %s</p><p>Thank you for shipping with us.</p>", inv.DueDate.Format("2 January 2006"))
	html = hb.String()

	return subject, text, html
}

func invoicePaidEmail(inv *models.Invoice, name string) (subject, text, html string) {
	subject = fmt.Sprintf("Payment received for invoice %s", inv.InvoiceNumber)
	text = fmt.Sprintf(
		"Dear %s,\n\nWe have received your payment of %s USD for invoice %s.\nThank you for your business.\n",
		name, inv.TotalAmount.StringFixed(2), inv.InvoiceNumber,
	)
	html = fmt.Sprintf(
		"<p>Dear %s,</p><p>We have received your payment of <strong>%s USD</strong> for invoice <strong>%s</strong>.</p><p>Thank you for your business.</p>",
		name, inv.TotalAmount.StringFixed(2), inv.InvoiceNumber,
	)
	return subject, text, html
}
