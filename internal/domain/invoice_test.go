package domain

import (
	"testing"

	"github.com/stagebill/stagebill-server/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestFormatInvoiceNumber(t *testing.T) {
	assert.Equal(t, "AVP-00042", FormatInvoiceNumber("AVP", 42))
	assert.Equal(t, "X-00001", FormatInvoiceNumber("X", 1))
	assert.Equal(t, "LONG-123456", FormatInvoiceNumber("LONG", 123456))
}

func TestComputeInvoiceTotalsPercentageDiscount(t *testing.T) {
	items := []models.InvoiceLineItem{
		{Quantity: 2, UnitPrice: 50},
		{Quantity: 1, UnitPrice: 100},
	}

	totals := ComputeInvoiceTotals(items, models.DiscountPercentage, 10)
	assert.Equal(t, 200.0, totals.Subtotal)
	assert.Equal(t, 20.0, totals.DiscountAmount)
	assert.Equal(t, 180.0, totals.Total)
}

func TestComputeInvoiceTotalsFlatDiscount(t *testing.T) {
	items := []models.InvoiceLineItem{{Quantity: 3, UnitPrice: 40}}

	totals := ComputeInvoiceTotals(items, models.DiscountFlat, 15)
	assert.Equal(t, 120.0, totals.Subtotal)
	assert.Equal(t, 15.0, totals.DiscountAmount)
	assert.Equal(t, 105.0, totals.Total)
}

func TestComputeInvoiceTotalsNoDiscount(t *testing.T) {
	totals := ComputeInvoiceTotals([]models.InvoiceLineItem{{Quantity: 1, UnitPrice: 250}}, models.DiscountNone, 0)
	assert.Equal(t, 250.0, totals.Subtotal)
	assert.Equal(t, 0.0, totals.DiscountAmount)
	assert.Equal(t, 250.0, totals.Total)
}

func TestValidateDiscount(t *testing.T) {
	assert.NoError(t, ValidateDiscount(models.DiscountNone, 0, 100))
	assert.NoError(t, ValidateDiscount(models.DiscountPercentage, 10, 100))
	assert.ErrorIs(t, ValidateDiscount(models.DiscountPercentage, 101, 100), ErrValidation)
	assert.ErrorIs(t, ValidateDiscount(models.DiscountFlat, -1, 100), ErrValidation)
	assert.ErrorIs(t, ValidateDiscount("bogus", 1, 100), ErrValidation)
}

func TestInvoiceStatusGuards(t *testing.T) {
	assert.True(t, InvoiceEditable(models.InvoiceDraft))
	assert.True(t, InvoiceDeletable(models.InvoiceDraft))
	assert.True(t, InvoiceSendable(models.InvoiceDraft))

	for _, s := range []models.InvoiceStatus{models.InvoiceSent, models.InvoicePastDue, models.InvoicePaid} {
		assert.False(t, InvoiceEditable(s), "status %s", s)
		assert.False(t, InvoiceDeletable(s), "status %s", s)
		assert.False(t, InvoiceSendable(s), "status %s", s)
	}
}

func TestApplyPayment(t *testing.T) {
	inv := &models.Invoice{Total: 180, AmountPaid: 0, AmountDue: 180, Status: models.InvoiceSent}

	paid, due, status := ApplyPayment(inv, 100)
	assert.Equal(t, 100.0, paid)
	assert.Equal(t, 80.0, due)
	assert.Equal(t, models.InvoiceSent, status, "partial payment must not flip status")

	inv.AmountPaid, inv.AmountDue = paid, due
	paid, due, status = ApplyPayment(inv, 80)
	assert.Equal(t, 180.0, paid)
	assert.Equal(t, 0.0, due)
	assert.Equal(t, models.InvoicePaid, status)
}

func TestApplyPaymentOverpaymentClampsToZero(t *testing.T) {
	inv := &models.Invoice{Total: 50, AmountPaid: 0, Status: models.InvoicePastDue}

	paid, due, status := ApplyPayment(inv, 75)
	assert.Equal(t, 75.0, paid)
	assert.Equal(t, 0.0, due)
	assert.Equal(t, models.InvoicePaid, status)
}
