package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stagebill/stagebill-server/internal/api/testutils"
	"github.com/stagebill/stagebill-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(tc.Router, "GET", "/api/work-orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutils.PerformRequest(tc.Router, "GET", "/api/work-orders", nil, map[string]string{
		"Authorization": "Bearer not-a-jwt",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = testutils.PerformRequest(tc.Router, "GET", "/api/work-orders", nil, map[string]string{
		"Authorization": "Basic dXNlcjpwYXNz",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestClientRolesCannotDriveLifecycle(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(tc.Router, "POST", "/api/work-orders", models.CreateWorkOrderRequest{
		EventName:    "Client Attempt",
		EventDate:    "2026-02-06",
		EstimateType: models.EstimateFixed,
		HoursFixed:   2,
	}, testutils.AuthHeaders(tc.ApproverJWT))
	assert.Equal(t, http.StatusForbidden, w.Code)

	wo := createWorkOrder(t, tc, "Staff Created")
	w = testutils.PerformRequest(tc.Router, "POST", "/api/work-orders/"+wo.ID+"/submit", nil,
		testutils.AuthHeaders(tc.ViewerJWT))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestClientsNeverSeeInternalNotes(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	wo := createWorkOrder(t, tc, "Sensitive")
	w := testutils.PerformRequest(tc.Router, "PUT", "/api/work-orders/"+wo.ID+"/internal-notes",
		models.InternalNotesRequest{InternalNotes: "margin is thin on this one"},
		testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.WorkOrderResponse
	w = testutils.PerformRequest(tc.Router, "GET", "/api/work-orders/"+wo.ID, nil,
		testutils.AuthHeaders(tc.StaffJWT))
	testutils.Decode(t, w, &resp)
	assert.NotEmpty(t, resp.WorkOrder.InternalNotes)

	w = testutils.PerformRequest(tc.Router, "GET", "/api/work-orders/"+wo.ID, nil,
		testutils.AuthHeaders(tc.ApproverJWT))
	resp = models.WorkOrderResponse{}
	testutils.Decode(t, w, &resp)
	assert.Empty(t, resp.WorkOrder.InternalNotes)
}

func TestCrossTenantLookupsReadAsMissing(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	wo := createWorkOrder(t, tc, "Tenant A Event")

	tc.Repo.SeedOrganization(models.Organization{
		ID:            "org-other",
		Name:          "Other Vendor",
		InvoicePrefix: "OTH",
		Timezone:      "UTC",
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	})
	outsider := testutils.MintToken(t, &models.User{
		ID:             "outsider-1",
		OrganizationID: "org-other",
		Role:           models.RoleVendorAdmin,
	})

	w := testutils.PerformRequest(tc.Router, "GET", "/api/work-orders/"+wo.ID, nil,
		testutils.AuthHeaders(outsider))
	assert.Equal(t, http.StatusNotFound, w.Code, "cross-tenant reads as missing, not forbidden")

	w = testutils.PerformRequest(tc.Router, "DELETE", "/api/work-orders/"+wo.ID, nil,
		testutils.AuthHeaders(outsider))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserManagementPermissions(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(tc.Router, "POST", "/api/users", models.CreateUserRequest{
		Email: "new@vendor.test",
		Name:  "New Tech",
		Role:  models.RoleVendorStaff,
	}, testutils.AuthHeaders(tc.ViewerJWT))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutils.PerformRequest(tc.Router, "POST", "/api/users", models.CreateUserRequest{
		Email: "new@vendor.test",
		Name:  "New Tech",
		Role:  models.RoleVendorStaff,
	}, testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		User models.User `json:"user"`
	}
	testutils.Decode(t, w, &created)
	assert.True(t, created.User.IsActive)

	// deactivation instead of deletion
	w = testutils.PerformRequest(tc.Router, "PUT", "/api/users/"+created.User.ID, models.UpdateUserRequest{
		Name:     "New Tech",
		Role:     models.RoleVendorStaff,
		IsActive: false,
	}, testutils.AuthHeaders(tc.StaffJWT))
	require.Equal(t, http.StatusOK, w.Code)
	testutils.Decode(t, w, &created)
	assert.False(t, created.User.IsActive)
}

func TestHealthEndpointIsPublic(t *testing.T) {
	tc := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(tc.Router, "GET", "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
