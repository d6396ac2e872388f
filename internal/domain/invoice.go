package domain

import (
	"fmt"

	"github.com/stagebill/stagebill-server/internal/models"
)

// FormatInvoiceNumber renders the per-organization invoice number from
// the prefix and the atomically allocated counter value.
func FormatInvoiceNumber(prefix string, counter int64) string {
	return fmt.Sprintf("%s-%05d", prefix, counter)
}

// InvoiceTotals holds the computed money fields of an invoice.
type InvoiceTotals struct {
	Subtotal       float64
	DiscountAmount float64
	Total          float64
}

// ComputeInvoiceTotals derives subtotal, discount and total from line
// items. Line amounts are always quantity × unit price; a percentage
// discount applies to the subtotal, a flat discount is taken as-is.
func ComputeInvoiceTotals(items []models.InvoiceLineItem, discountType models.DiscountType, discountValue float64) InvoiceTotals {
	var t InvoiceTotals
	for _, it := range items {
		t.Subtotal += it.Quantity * it.UnitPrice
	}
	switch discountType {
	case models.DiscountPercentage:
		t.DiscountAmount = t.Subtotal * discountValue / 100
	case models.DiscountFlat:
		t.DiscountAmount = discountValue
	}
	t.Total = t.Subtotal - t.DiscountAmount
	return t
}

// ValidateDiscount rejects out-of-range discounts before any totals
// are computed.
func ValidateDiscount(discountType models.DiscountType, value float64, subtotal float64) error {
	switch discountType {
	case models.DiscountNone:
		return nil
	case models.DiscountPercentage:
		if value < 0 || value > 100 {
			return fmt.Errorf("%w: percentage discount must be between 0 and 100", ErrValidation)
		}
	case models.DiscountFlat:
		if value < 0 {
			return fmt.Errorf("%w: flat discount cannot be negative", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown discount type %q", ErrValidation, discountType)
	}
	return nil
}

// InvoiceEditable reports whether line items and discount may still
// change.
func InvoiceEditable(status models.InvoiceStatus) bool {
	return status == models.InvoiceDraft
}

// InvoiceDeletable reports whether the invoice may be deleted.
func InvoiceDeletable(status models.InvoiceStatus) bool {
	return status == models.InvoiceDraft
}

// InvoiceSendable reports whether the invoice may be sent. Sending is
// one-way; a sent invoice cannot be re-sent.
func InvoiceSendable(status models.InvoiceStatus) bool {
	return status == models.InvoiceDraft
}

// ApplyPayment returns the invoice's money fields and status after
// crediting a successful payment of the given amount. amountDue never
// goes below zero, and the invoice flips to paid exactly when it
// reaches zero.
func ApplyPayment(inv *models.Invoice, amount float64) (amountPaid, amountDue float64, status models.InvoiceStatus) {
	amountPaid = inv.AmountPaid + amount
	amountDue = inv.Total - amountPaid
	if amountDue < 0 {
		amountDue = 0
	}
	status = inv.Status
	if amountDue == 0 {
		status = models.InvoicePaid
	}
	return amountPaid, amountDue, status
}
