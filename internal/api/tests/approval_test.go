package tests

import (
	"net/http"
	"testing"

	"github.com/stagebill/stagebill-server/internal/api/testutils"
	"github.com/stagebill/stagebill-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type changeOrderBody struct {
	Status      string             `json:"status"`
	ChangeOrder models.ChangeOrder `json:"changeOrder"`
}

type bulkSignBody struct {
	Status  string                  `json:"status"`
	Results []models.BulkSignResult `json:"results"`
}

func TestSignUnknownToken(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(tc.Router, "POST", "/approve/not-a-real-token", models.SignRequest{
		SignatureImage: testSignature,
	}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSignRejectsBadImage(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	wo := createWorkOrder(t, tc, "Team Offsite")
	token := submitWorkOrder(t, tc, wo.ID)

	w := testutils.PerformRequest(tc.Router, "POST", "/approve/"+token, models.SignRequest{
		SignatureImage: "%%% not base64 %%%",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// the failed attempt must not consume the token
	signToken(t, tc, token)
}

func TestChangeOrderApprovalFlow(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	wo := createWorkOrder(t, tc, "Product Launch")
	signToken(t, tc, submitWorkOrder(t, tc, wo.ID))

	w := testutils.PerformRequest(tc.Router, "POST", "/api/work-orders/"+wo.ID+"/change-orders",
		models.CreateChangeOrderRequest{
			AdditionalHours: 3,
			ReasonCode:      "extended_hours",
			ReasonText:      "Event ran long",
		}, testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var co changeOrderBody
	testutils.Decode(t, w, &co)
	require.False(t, co.ChangeOrder.IsApproved)

	token := tc.Repo.FindChangeOrderToken(co.ChangeOrder.ID)
	require.NotEmpty(t, token)

	// the public page shows the change order alongside its parent
	w = testutils.PerformRequest(tc.Router, "GET", "/approve/"+token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sc models.SigningContext
	testutils.Decode(t, w, &sc)
	require.NotNil(t, sc.ChangeOrder)
	assert.Equal(t, co.ChangeOrder.ID, sc.ChangeOrder.ID)

	signToken(t, tc, token)

	// approved extra hours feed the order's derived financials
	var resp models.WorkOrderResponse
	w = testutils.PerformRequest(tc.Router, "GET", "/api/work-orders/"+wo.ID, nil,
		testutils.AuthHeaders(tc.StaffJWT))
	testutils.Decode(t, w, &resp)
	assert.InDelta(t, 3, resp.AdditionalApprovedHours, 1e-9)
	assert.InDelta(t, 3*95, resp.AdditionalApprovedCost, 1e-9)

	// approval is one-way
	w = testutils.PerformRequest(tc.Router, "DELETE", "/api/change-orders/"+co.ChangeOrder.ID, nil,
		testutils.AuthHeaders(tc.StaffJWT))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestChangeOrderNeedsApprovedOrder(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	wo := createWorkOrder(t, tc, "Draft Event")
	w := testutils.PerformRequest(tc.Router, "POST", "/api/work-orders/"+wo.ID+"/change-orders",
		models.CreateChangeOrderRequest{AdditionalHours: 2, ReasonCode: "added_scope"},
		testutils.AuthHeaders(tc.StaffJWT))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBulkSign(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	first := createWorkOrder(t, tc, "Week One")
	second := createWorkOrder(t, tc, "Week Two")
	third := createWorkOrder(t, tc, "Still Draft")
	submitWorkOrder(t, tc, first.ID)
	submitWorkOrder(t, tc, second.ID)

	w := testutils.PerformRequest(tc.Router, "POST", "/api/approve/bulk", models.BulkSignRequest{
		WorkOrderIDs:   []string{first.ID, second.ID, third.ID},
		SignatureImage: testSignature,
	}, testutils.AuthHeaders(tc.ApproverJWT))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body bulkSignBody
	testutils.Decode(t, w, &body)
	require.Len(t, body.Results, 3)
	assert.True(t, body.Results[0].Signed)
	assert.True(t, body.Results[1].Signed)
	assert.False(t, body.Results[2].Signed, "draft order has no outstanding token")
	assert.NotEmpty(t, body.Results[2].Reason)

	// signer identity defaults to the authenticated user
	var resp struct {
		Approvals []models.Approval `json:"approvals"`
	}
	w = testutils.PerformRequest(tc.Router, "GET", "/api/work-orders/"+first.ID+"/approvals", nil,
		testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusOK, w.Code)
	testutils.Decode(t, w, &resp)
	require.Len(t, resp.Approvals, 1)
	assert.Equal(t, "Riley Chen", resp.Approvals[0].SignerName)
	require.NotNil(t, resp.Approvals[0].SignerUserID)
	assert.Equal(t, tc.ApproverID, *resp.Approvals[0].SignerUserID)
}

func TestBulkSignRequiresApprover(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(tc.Router, "POST", "/api/approve/bulk", models.BulkSignRequest{
		WorkOrderIDs:   []string{"any"},
		SignatureImage: testSignature,
	}, testutils.AuthHeaders(tc.ViewerJWT))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutils.PerformRequest(tc.Router, "POST", "/api/approve/bulk", models.BulkSignRequest{
		WorkOrderIDs:   []string{"any"},
		SignatureImage: testSignature,
	}, testutils.AuthHeaders(tc.StaffJWT))
	assert.Equal(t, http.StatusForbidden, w.Code, "staff cannot sign on the client's behalf")
}
