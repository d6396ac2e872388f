package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stagebill/stagebill-server/internal/api/testutils"
	"github.com/stagebill/stagebill-server/internal/domain"
	"github.com/stagebill/stagebill-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sentInvoice(t *testing.T, tc *testutils.TestContext) models.Invoice {
	t.Helper()

	wo := completedWorkOrder(t, tc, "Billable Event", 4)
	w := testutils.PerformRequest(tc.Router, "POST", "/api/invoices/build", models.BuildInvoiceRequest{
		WorkOrderIDs: []string{wo.ID},
		InvoiceDate:  "2026-02-28",
		DueDate:      "2026-03-30",
	}, testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusCreated, w.Code)

	var body invoiceBody
	testutils.Decode(t, w, &body)

	w = testutils.PerformRequest(tc.Router, "POST", "/api/invoices/"+body.Invoice.ID+"/send", nil,
		testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusOK, w.Code)
	return body.Invoice
}

func getInvoice(t *testing.T, tc *testutils.TestContext, id string) models.Invoice {
	t.Helper()

	w := testutils.PerformRequest(tc.Router, "GET", "/api/invoices/"+id, nil,
		testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusOK, w.Code)
	var body invoiceBody
	testutils.Decode(t, w, &body)
	return body.Invoice
}

func webhookBody(eventType, processorID, invoiceID string, amount float64) []byte {
	return []byte(fmt.Sprintf(
		`{"type":%q,"processorPaymentId":%q,"invoiceId":%q,"amount":%v,"method":"card"}`,
		eventType, processorID, invoiceID, amount))
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	inv := sentInvoice(t, tc)

	body := webhookBody("completed", "pay-1", inv.ID, inv.Total)

	w := testutils.PerformRawRequest(tc.Router, "POST", "/webhooks/payments", body, map[string]string{
		"X-Payment-Signature": "deadbeef",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutils.PerformRawRequest(tc.Router, "POST", "/webhooks/payments", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// nothing was credited
	assert.InDelta(t, inv.Total, getInvoice(t, tc, inv.ID).AmountDue, 1e-9)
}

func TestWebhookPartialThenFullPayment(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	inv := sentInvoice(t, tc)

	payInvoice(t, tc, inv.ID, "pay-part", 100)

	after := getInvoice(t, tc, inv.ID)
	assert.InDelta(t, 100, after.AmountPaid, 1e-9)
	assert.InDelta(t, inv.Total-100, after.AmountDue, 1e-9)
	assert.Equal(t, models.InvoiceSent, after.Status, "partial payment does not settle")

	payInvoice(t, tc, inv.ID, "pay-rest", inv.Total-100)

	after = getInvoice(t, tc, inv.ID)
	assert.InDelta(t, 0, after.AmountDue, 1e-9)
	assert.Equal(t, models.InvoicePaid, after.Status)
}

func TestWebhookReplayIsIdempotent(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	inv := sentInvoice(t, tc)

	for i := 0; i < 3; i++ {
		payInvoice(t, tc, inv.ID, "pay-replayed", 50)
	}

	after := getInvoice(t, tc, inv.ID)
	assert.InDelta(t, 50, after.AmountPaid, 1e-9, "replays credit once")

	var payments struct {
		Payments []models.Payment `json:"payments"`
	}
	w := testutils.PerformRequest(tc.Router, "GET", "/api/invoices/"+inv.ID+"/payments", nil,
		testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusOK, w.Code)
	testutils.Decode(t, w, &payments)
	assert.Len(t, payments.Payments, 1)
}

func TestWebhookFailedPaymentRecordsWithoutCredit(t *testing.T) {
	tc := testutils.SetupTestContext(t)
	inv := sentInvoice(t, tc)

	body := webhookBody("async_failed", "pay-failed", inv.ID, inv.Total)
	w := testutils.PerformRawRequest(tc.Router, "POST", "/webhooks/payments", body, map[string]string{
		"X-Payment-Signature": domain.SignWebhookBody(body, testutils.TestWebhookSecret),
	})
	require.Equal(t, http.StatusOK, w.Code)

	after := getInvoice(t, tc, inv.ID)
	assert.InDelta(t, 0, after.AmountPaid, 1e-9)
	assert.Equal(t, models.InvoiceSent, after.Status)

	var payments struct {
		Payments []models.Payment `json:"payments"`
	}
	w = testutils.PerformRequest(tc.Router, "GET", "/api/invoices/"+inv.ID+"/payments", nil,
		testutils.AuthHeaders(tc.StaffJWT))
	testutils.Decode(t, w, &payments)
	require.Len(t, payments.Payments, 1)
	assert.Equal(t, models.PaymentFailed, payments.Payments[0].Status)
}

func TestWebhookUnknownInvoice(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	body := webhookBody("completed", "pay-orphan", "no-such-invoice", 10)
	w := testutils.PerformRawRequest(tc.Router, "POST", "/webhooks/payments", body, map[string]string{
		"X-Payment-Signature": domain.SignWebhookBody(body, testutils.TestWebhookSecret),
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
