package tests

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"testing"

	"github.com/stagebill/stagebill-server/internal/api/testutils"
	"github.com/stagebill/stagebill-server/internal/domain"
	"github.com/stagebill/stagebill-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSignature = base64.StdEncoding.EncodeToString([]byte("signature-png-bytes"))

type workOrderBody struct {
	Status    string           `json:"status"`
	WorkOrder models.WorkOrder `json:"workOrder"`
}

type submitBody struct {
	Status        string `json:"status"`
	ApprovalToken string `json:"approvalToken"`
}

type invoiceBody struct {
	Status  string         `json:"status"`
	Invoice models.Invoice `json:"invoice"`
}

func createWorkOrder(t *testing.T, tc *testutils.TestContext, eventName string) models.WorkOrder {
	t.Helper()

	w := testutils.PerformRequest(tc.Router, "POST", "/api/work-orders", models.CreateWorkOrderRequest{
		EventName:    eventName,
		EventDate:    "2026-02-06",
		Venue:        "Grand Hall",
		EventType:    "conference",
		EstimateType: models.EstimateRange,
		HoursMin:     2,
		HoursMax:     5,
		ServiceRefs:  []string{"audio", "lighting"},
	}, testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body workOrderBody
	testutils.Decode(t, w, &body)
	return body.WorkOrder
}

func submitWorkOrder(t *testing.T, tc *testutils.TestContext, workOrderID string) string {
	t.Helper()

	w := testutils.PerformRequest(tc.Router, "POST", "/api/work-orders/"+workOrderID+"/submit", nil,
		testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body submitBody
	testutils.Decode(t, w, &body)
	require.NotEmpty(t, body.ApprovalToken)
	return body.ApprovalToken
}

func signToken(t *testing.T, tc *testutils.TestContext, token string) {
	t.Helper()

	w := testutils.PerformRequest(tc.Router, "POST", "/approve/"+token, models.SignRequest{
		SignerName:     "Riley Chen",
		SignerTitle:    "Events Director",
		SignatureImage: testSignature,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestWorkOrderCreateDefaults(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	wo := createWorkOrder(t, tc, "Quarterly All-Hands")
	assert.Equal(t, models.WorkOrderDraft, wo.Status)
	assert.Equal(t, 95.0, wo.RateSnapshot)
	assert.Equal(t, testutils.TestOrgID, wo.OrganizationID)
	assert.Equal(t, tc.StaffID, wo.RequesterID)
}

func TestWorkOrderFullLifecycle(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	wo := createWorkOrder(t, tc, "Speaker Night")
	token := submitWorkOrder(t, tc, wo.ID)

	// public signing page renders the order
	w := testutils.PerformRequest(tc.Router, "GET", "/approve/"+token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sc models.SigningContext
	testutils.Decode(t, w, &sc)
	assert.Equal(t, "Apex Venue Productions", sc.OrganizationName)
	assert.Equal(t, wo.ID, sc.WorkOrder.ID)
	assert.Empty(t, sc.WorkOrder.InternalNotes)

	signToken(t, tc, token)

	// token is single use
	w = testutils.PerformRequest(tc.Router, "POST", "/approve/"+token, models.SignRequest{
		SignatureImage: testSignature,
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = testutils.PerformRequest(tc.Router, "POST", "/api/work-orders/"+wo.ID+"/start", nil,
		testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusOK, w.Code)

	for _, req := range []models.TimeLogRequest{
		{Date: "2026-02-06", Category: models.TimeLogOnSite, Hours: 2, StartTime: "15:45", EndTime: "17:45"},
		{Date: "2026-02-07", Category: models.TimeLogPostProduction, Hours: 1.25},
	} {
		w = testutils.PerformRequest(tc.Router, "POST", "/api/work-orders/"+wo.ID+"/time-logs", req,
			testutils.AuthHeaders(tc.StaffJWT))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = testutils.PerformRequest(tc.Router, "GET", "/api/work-orders/"+wo.ID, nil,
		testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusOK, w.Code)
	var resp models.WorkOrderResponse
	testutils.Decode(t, w, &resp)
	assert.InDelta(t, 3.25, resp.WorkOrder.ActualHours, 1e-9)

	w = testutils.PerformRequest(tc.Router, "POST", "/api/work-orders/"+wo.ID+"/complete",
		models.CompleteWorkOrderRequest{CompletionNotes: "Struck by 23:00."},
		testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// invoice from actual hours at the snapshot rate
	w = testutils.PerformRequest(tc.Router, "POST", "/api/invoices/build", models.BuildInvoiceRequest{
		WorkOrderIDs: []string{wo.ID},
		InvoiceDate:  "2026-02-28",
		DueDate:      "2026-03-30",
	}, testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var inv invoiceBody
	testutils.Decode(t, w, &inv)
	assert.Equal(t, "AVP-00042", inv.Invoice.Number)
	assert.InDelta(t, 3.25*95, inv.Invoice.Total, 1e-9)
	require.Len(t, inv.Invoice.LineItems, 1)
	assert.InDelta(t, 3.25, inv.Invoice.LineItems[0].Quantity, 1e-9)

	w = testutils.PerformRequest(tc.Router, "GET", "/api/work-orders/"+wo.ID, nil,
		testutils.AuthHeaders(tc.StaffJWT))
	testutils.Decode(t, w, &resp)
	assert.Equal(t, models.WorkOrderInvoiced, resp.WorkOrder.Status)

	w = testutils.PerformRequest(tc.Router, "POST", "/api/invoices/"+inv.Invoice.ID+"/send", nil,
		testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusOK, w.Code)

	payInvoice(t, tc, inv.Invoice.ID, "pay-lifecycle-1", inv.Invoice.Total)

	w = testutils.PerformRequest(tc.Router, "GET", "/api/invoices/"+inv.Invoice.ID, nil,
		testutils.AuthHeaders(tc.StaffJWT))
	testutils.Decode(t, w, &inv)
	assert.Equal(t, models.InvoicePaid, inv.Invoice.Status)
	assert.InDelta(t, 0, inv.Invoice.AmountDue, 1e-9)

	// settling the invoice does not touch the work order's status
	w = testutils.PerformRequest(tc.Router, "GET", "/api/work-orders/"+wo.ID, nil,
		testutils.AuthHeaders(tc.StaffJWT))
	testutils.Decode(t, w, &resp)
	assert.Equal(t, models.WorkOrderInvoiced, resp.WorkOrder.Status)
}

func payInvoice(t *testing.T, tc *testutils.TestContext, invoiceID, processorID string, amount float64) {
	t.Helper()

	body := []byte(fmt.Sprintf(
		`{"type":"completed","processorPaymentId":%q,"invoiceId":%q,"amount":%v,"method":"card"}`,
		processorID, invoiceID, amount))
	w := testutils.PerformRawRequest(tc.Router, "POST", "/webhooks/payments", body, map[string]string{
		"X-Payment-Signature": domain.SignWebhookBody(body, testutils.TestWebhookSecret),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestWorkOrderEditGuards(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	wo := createWorkOrder(t, tc, "Gala Dinner")
	token := submitWorkOrder(t, tc, wo.ID)
	signToken(t, tc, token)

	// approved orders are no longer editable
	w := testutils.PerformRequest(tc.Router, "PUT", "/api/work-orders/"+wo.ID, models.UpdateWorkOrderRequest{
		EventName:    "Gala Dinner v2",
		EventDate:    "2026-02-07",
		EstimateType: models.EstimateFixed,
		HoursFixed:   4,
	}, testutils.AuthHeaders(tc.StaffJWT))
	assert.Equal(t, http.StatusConflict, w.Code)

	// nor deletable
	w = testutils.PerformRequest(tc.Router, "DELETE", "/api/work-orders/"+wo.ID, nil,
		testutils.AuthHeaders(tc.StaffJWT))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancelApprovalReturnsToDraft(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	wo := createWorkOrder(t, tc, "Board Meeting")
	token := submitWorkOrder(t, tc, wo.ID)

	w := testutils.PerformRequest(tc.Router, "POST", "/api/work-orders/"+wo.ID+"/cancel-approval", nil,
		testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusOK, w.Code)

	// withdrawn link is dead
	w = testutils.PerformRequest(tc.Router, "GET", "/approve/"+token, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp models.WorkOrderResponse
	w = testutils.PerformRequest(tc.Router, "GET", "/api/work-orders/"+wo.ID, nil,
		testutils.AuthHeaders(tc.StaffJWT))
	testutils.Decode(t, w, &resp)
	assert.Equal(t, models.WorkOrderDraft, resp.WorkOrder.Status)
}

func TestTimeLogClosedAfterInvoicing(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	wo := createWorkOrder(t, tc, "Wrap Party")
	signToken(t, tc, submitWorkOrder(t, tc, wo.ID))

	w := testutils.PerformRequest(tc.Router, "POST", "/api/work-orders/"+wo.ID+"/complete", nil,
		testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(tc.Router, "POST", "/api/work-orders/"+wo.ID+"/time-logs", models.TimeLogRequest{
		Date: "2026-02-08", Category: models.TimeLogAdmin, Hours: 1,
	}, testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusCreated, w.Code, "completed orders still accept time")

	w = testutils.PerformRequest(tc.Router, "POST", "/api/invoices/build", models.BuildInvoiceRequest{
		WorkOrderIDs: []string{wo.ID},
		InvoiceDate:  "2026-02-28",
	}, testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusCreated, w.Code)

	w = testutils.PerformRequest(tc.Router, "POST", "/api/work-orders/"+wo.ID+"/time-logs", models.TimeLogRequest{
		Date: "2026-02-09", Category: models.TimeLogAdmin, Hours: 1,
	}, testutils.AuthHeaders(tc.StaffJWT))
	assert.Equal(t, http.StatusConflict, w.Code, "invoiced orders reject time")
}
