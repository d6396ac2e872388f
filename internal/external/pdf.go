package external

import (
	"bytes"
	"context"
	"fmt"

	"github.com/stagebill/stagebill-server/internal/models"
)

// PDFRenderer turns an invoice into a printable byte stream. Purely
// presentational; no domain logic may live behind it.
type PDFRenderer interface {
	RenderInvoice(ctx context.Context, inv *models.Invoice, org *models.Organization) ([]byte, error)
}

// PlainRenderer produces a plain-text rendition. Stands in for a real
// PDF service in development.
type PlainRenderer struct{}

func (PlainRenderer) RenderInvoice(_ context.Context, inv *models.Invoice, org *models.Organization) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\nInvoice %s\nDate: %s\n\n", org.Name, inv.Number, inv.InvoiceDate.Format("2006-01-02"))
	for _, it := range inv.LineItems {
		fmt.Fprintf(&buf, "%-40s %8.2f x %10.2f = %10.2f\n", it.Description, it.Quantity, it.UnitPrice, it.Amount)
	}
	fmt.Fprintf(&buf, "\nSubtotal: %.2f\nDiscount: %.2f\nTotal: %.2f\nPaid: %.2f\nDue: %.2f\n",
		inv.Subtotal, inv.DiscountAmount, inv.Total, inv.AmountPaid, inv.AmountDue)
	if org.PaymentTerms != "" {
		fmt.Fprintf(&buf, "\nTerms: %s\n", org.PaymentTerms)
	}

	return buf.Bytes(), nil
}
