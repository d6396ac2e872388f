package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stagebill/stagebill-server/internal/api/testutils"
	"github.com/stagebill/stagebill-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedWorkOrder(t *testing.T, tc *testutils.TestContext, eventName string, hours float64) models.WorkOrder {
	t.Helper()

	wo := createWorkOrder(t, tc, eventName)
	signToken(t, tc, submitWorkOrder(t, tc, wo.ID))

	w := testutils.PerformRequest(tc.Router, "POST", "/api/work-orders/"+wo.ID+"/time-logs", models.TimeLogRequest{
		Date: "2026-02-06", Category: models.TimeLogOnSite, Hours: hours,
	}, testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusCreated, w.Code)

	w = testutils.PerformRequest(tc.Router, "POST", "/api/work-orders/"+wo.ID+"/complete", nil,
		testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusOK, w.Code)
	return wo
}

func TestBuildInvoiceRejectsUncompletedOrder(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	wo := createWorkOrder(t, tc, "Not Done Yet")
	w := testutils.PerformRequest(tc.Router, "POST", "/api/invoices/build", models.BuildInvoiceRequest{
		WorkOrderIDs: []string{wo.ID},
		InvoiceDate:  "2026-02-28",
	}, testutils.AuthHeaders(tc.StaffJWT))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBuildInvoiceWithRetainerAndDiscount(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	first := completedWorkOrder(t, tc, "Morning Session", 2)
	second := completedWorkOrder(t, tc, "Evening Session", 1)

	w := testutils.PerformRequest(tc.Router, "POST", "/api/invoices/build", models.BuildInvoiceRequest{
		WorkOrderIDs:    []string{first.ID, second.ID},
		InvoiceDate:     "2026-02-28",
		IncludeRetainer: true,
		DiscountType:    models.DiscountPercentage,
		DiscountValue:   10,
	}, testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body invoiceBody
	testutils.Decode(t, w, &body)
	inv := body.Invoice

	require.Len(t, inv.LineItems, 3)
	assert.True(t, inv.LineItems[2].IsRetainer)

	// (2+1)×95 + 1500 retainer, minus 10%
	subtotal := 3*95.0 + 1500
	assert.InDelta(t, subtotal, inv.Subtotal, 1e-9)
	assert.InDelta(t, subtotal*0.10, inv.DiscountAmount, 1e-9)
	assert.InDelta(t, subtotal*0.90, inv.Total, 1e-9)
	assert.Equal(t, models.InvoiceDraft, inv.Status)
}

func TestInvoiceNumbersAreSequential(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	for i, want := range []string{"AVP-00042", "AVP-00043"} {
		wo := completedWorkOrder(t, tc, "Event", 1)
		w := testutils.PerformRequest(tc.Router, "POST", "/api/invoices/build", models.BuildInvoiceRequest{
			WorkOrderIDs: []string{wo.ID},
			InvoiceDate:  "2026-02-28",
		}, testutils.AuthHeaders(tc.StaffJWT))
		require.Equal(t, http.StatusCreated, w.Code, "invoice %d", i)

		var body invoiceBody
		testutils.Decode(t, w, &body)
		assert.Equal(t, want, body.Invoice.Number)
	}
}

func TestInvoiceUpdateOnlyDraft(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	wo := completedWorkOrder(t, tc, "Editable", 2)
	w := testutils.PerformRequest(tc.Router, "POST", "/api/invoices/build", models.BuildInvoiceRequest{
		WorkOrderIDs: []string{wo.ID},
		InvoiceDate:  "2026-02-28",
	}, testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusCreated, w.Code)
	var body invoiceBody
	testutils.Decode(t, w, &body)

	update := models.UpdateInvoiceRequest{
		InvoiceDate: "2026-02-28",
		LineItems: []models.LineItemRequest{
			{Description: "Production services", Quantity: 2, UnitPrice: 120, IsCustom: true},
		},
	}

	w = testutils.PerformRequest(tc.Router, "PUT", "/api/invoices/"+body.Invoice.ID, update,
		testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	testutils.Decode(t, w, &body)
	assert.InDelta(t, 240, body.Invoice.Total, 1e-9)

	w = testutils.PerformRequest(tc.Router, "POST", "/api/invoices/"+body.Invoice.ID+"/send", nil,
		testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusOK, w.Code)

	// sent invoices are immutable
	w = testutils.PerformRequest(tc.Router, "PUT", "/api/invoices/"+body.Invoice.ID, update,
		testutils.AuthHeaders(tc.StaffJWT))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = testutils.PerformRequest(tc.Router, "DELETE", "/api/invoices/"+body.Invoice.ID, nil,
		testutils.AuthHeaders(tc.StaffJWT))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = testutils.PerformRequest(tc.Router, "POST", "/api/invoices/"+body.Invoice.ID+"/send", nil,
		testutils.AuthHeaders(tc.StaffJWT))
	assert.Equal(t, http.StatusConflict, w.Code, "sending is one-way")
}

func TestDeleteDraftInvoiceRevertsWorkOrders(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	wo := completedWorkOrder(t, tc, "Reverted", 2)
	w := testutils.PerformRequest(tc.Router, "POST", "/api/invoices/build", models.BuildInvoiceRequest{
		WorkOrderIDs: []string{wo.ID},
		InvoiceDate:  "2026-02-28",
	}, testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusCreated, w.Code)
	var body invoiceBody
	testutils.Decode(t, w, &body)

	w = testutils.PerformRequest(tc.Router, "DELETE", "/api/invoices/"+body.Invoice.ID, nil,
		testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.WorkOrderResponse
	w = testutils.PerformRequest(tc.Router, "GET", "/api/work-orders/"+wo.ID, nil,
		testutils.AuthHeaders(tc.StaffJWT))
	testutils.Decode(t, w, &resp)
	assert.Equal(t, models.WorkOrderCompleted, resp.WorkOrder.Status)
	assert.Nil(t, resp.WorkOrder.InvoiceID)
}

func TestPublicInvoiceView(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	wo := completedWorkOrder(t, tc, "Viewable", 1)
	w := testutils.PerformRequest(tc.Router, "POST", "/api/invoices/build", models.BuildInvoiceRequest{
		WorkOrderIDs: []string{wo.ID},
		InvoiceDate:  "2026-02-28",
	}, testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusCreated, w.Code)
	var body invoiceBody
	testutils.Decode(t, w, &body)

	inv, err := tc.Repo.FindInvoice(context.Background(), body.Invoice.ID)
	require.NoError(t, err)

	w = testutils.PerformRequest(tc.Router, "GET", "/invoice/"+inv.ViewToken, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	testutils.Decode(t, w, &body)
	assert.Equal(t, inv.Number, body.Invoice.Number)

	w = testutils.PerformRequest(tc.Router, "GET", "/invoice/bogus-token", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckoutRequiresPaymentCapability(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	wo := completedWorkOrder(t, tc, "Payable", 2)
	w := testutils.PerformRequest(tc.Router, "POST", "/api/invoices/build", models.BuildInvoiceRequest{
		WorkOrderIDs: []string{wo.ID},
		InvoiceDate:  "2026-02-28",
	}, testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusCreated, w.Code)
	var body invoiceBody
	testutils.Decode(t, w, &body)

	// drafts cannot be paid
	w = testutils.PerformRequest(tc.Router, "POST", "/api/invoices/"+body.Invoice.ID+"/checkout", nil,
		testutils.AuthHeaders(tc.ApproverJWT))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = testutils.PerformRequest(tc.Router, "POST", "/api/invoices/"+body.Invoice.ID+"/send", nil,
		testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(tc.Router, "POST", "/api/invoices/"+body.Invoice.ID+"/checkout", nil,
		testutils.AuthHeaders(tc.ViewerJWT))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutils.PerformRequest(tc.Router, "POST", "/api/invoices/"+body.Invoice.ID+"/checkout", nil,
		testutils.AuthHeaders(tc.ApproverJWT))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var checkout models.CheckoutResponse
	testutils.Decode(t, w, &checkout)
	assert.Contains(t, checkout.CheckoutURL, body.Invoice.ID)
}

func TestInvoiceComments(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	wo := completedWorkOrder(t, tc, "Discussed", 1)
	w := testutils.PerformRequest(tc.Router, "POST", "/api/invoices/build", models.BuildInvoiceRequest{
		WorkOrderIDs: []string{wo.ID},
		InvoiceDate:  "2026-02-28",
	}, testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusCreated, w.Code)
	var body invoiceBody
	testutils.Decode(t, w, &body)

	w = testutils.PerformRequest(tc.Router, "POST", "/api/invoices/"+body.Invoice.ID+"/comments",
		models.CommentRequest{Body: "Was the second rigger really needed?"},
		testutils.AuthHeaders(tc.ApproverJWT))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// viewers can read the thread but not post
	w = testutils.PerformRequest(tc.Router, "POST", "/api/invoices/"+body.Invoice.ID+"/comments",
		models.CommentRequest{Body: "me too"}, testutils.AuthHeaders(tc.ViewerJWT))
	assert.Equal(t, http.StatusForbidden, w.Code)

	var comments struct {
		Comments []models.InvoiceComment `json:"comments"`
	}
	w = testutils.PerformRequest(tc.Router, "GET", "/api/invoices/"+body.Invoice.ID+"/comments", nil,
		testutils.AuthHeaders(tc.ViewerJWT))
	require.Equal(t, http.StatusOK, w.Code)
	testutils.Decode(t, w, &comments)
	require.Len(t, comments.Comments, 1)
	assert.Equal(t, tc.ApproverID, comments.Comments[0].AuthorID)

	// only the author or staff may delete
	commentURL := "/api/invoices/" + body.Invoice.ID + "/comments/" + comments.Comments[0].ID
	w = testutils.PerformRequest(tc.Router, "DELETE", commentURL, nil, testutils.AuthHeaders(tc.ViewerJWT))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutils.PerformRequest(tc.Router, "DELETE", commentURL, nil, testutils.AuthHeaders(tc.ApproverJWT))
	require.Equal(t, http.StatusOK, w.Code)

	var after struct {
		Comments []models.InvoiceComment `json:"comments"`
	}
	w = testutils.PerformRequest(tc.Router, "GET", "/api/invoices/"+body.Invoice.ID+"/comments", nil,
		testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusOK, w.Code)
	testutils.Decode(t, w, &after)
	assert.Empty(t, after.Comments)
}
