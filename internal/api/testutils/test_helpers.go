package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stagebill/stagebill-server/internal/api"
	"github.com/stagebill/stagebill-server/internal/external"
	"github.com/stagebill/stagebill-server/internal/models"
	"github.com/stagebill/stagebill-server/internal/repository"
	"github.com/stagebill/stagebill-server/internal/service"
	"github.com/stretchr/testify/require"
)

const (
	TestJWTSecret     = "test-secret-key"
	TestWebhookSecret = "whsec-test"
	TestOrgID         = "org-avp"
)

// TestContext holds all dependencies for tests
type TestContext struct {
	Router *gin.Engine
	Repo   *repository.MemoryRepository

	StaffID     string
	StaffJWT    string
	ApproverID  string
	ApproverJWT string
	ViewerID    string
	ViewerJWT   string
}

// memStorage keeps signature blobs in memory.
type memStorage struct {
	blobs map[string][]byte
}

func (s *memStorage) PutSignature(_ context.Context, key string, data []byte) (string, error) {
	if s.blobs == nil {
		s.blobs = make(map[string][]byte)
	}
	s.blobs[key] = data
	return "https://files.test/" + key, nil
}

// SetupTestContext builds a router over an in-memory repository with a
// seeded tenant and one user per side of the portal.
func SetupTestContext(t *testing.T) *TestContext {
	t.Helper()

	repo := repository.NewMemoryRepository()
	repo.SeedOrganization(models.Organization{
		ID:                TestOrgID,
		Name:              "Apex Venue Productions",
		InvoicePrefix:     "AVP",
		NextInvoiceNumber: 42,
		DefaultRate:       95,
		MonthlyRetainer:   1500,
		ContactEmail:      "billing@client.test",
		Timezone:          "America/Chicago",
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	})

	logger := zerolog.Nop()
	email := &external.LogEmailSender{Log: logger}
	storage := &memStorage{}
	checkout := &external.HostedCheckout{BaseURL: "https://pay.test"}

	handler := api.NewHandler(api.HandlerConfig{
		WorkOrders:    service.NewWorkOrderService(repo, email, logger, "https://portal.test"),
		TimeLogs:      service.NewTimeLogService(repo, logger),
		ChangeOrders:  service.NewChangeOrderService(repo, email, logger, "https://portal.test"),
		Approvals:     service.NewApprovalService(repo, storage, logger),
		Invoices:      service.NewInvoiceService(repo, external.PlainRenderer{}, checkout, email, logger, "https://portal.test"),
		Payments:      service.NewPaymentService(repo, logger),
		Org:           service.NewOrgService(repo, logger),
		JWTSecret:     TestJWTSecret,
		WebhookSecret: TestWebhookSecret,
		Log:           logger,
	})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.SetupRoutes(router)

	tc := &TestContext{Router: router, Repo: repo}

	staff := seedUser(t, repo, "ops@vendor.test", "Dana Ops", models.RoleVendorAdmin, false, false)
	approver := seedUser(t, repo, "approver@client.test", "Riley Chen", models.RoleClientApprover, true, true)
	viewer := seedUser(t, repo, "viewer@client.test", "Sam Reed", models.RoleClientViewer, false, false)

	tc.StaffID, tc.StaffJWT = staff.ID, MintToken(t, staff)
	tc.ApproverID, tc.ApproverJWT = approver.ID, MintToken(t, approver)
	tc.ViewerID, tc.ViewerJWT = viewer.ID, MintToken(t, viewer)
	return tc
}

func seedUser(t *testing.T, repo repository.Repository, email, name string, role models.Role, isApprover, canPay bool) *models.User {
	t.Helper()

	u := &models.User{
		OrganizationID: TestOrgID,
		Email:          email,
		Name:           name,
		Title:          "Producer",
		Role:           role,
		IsApprover:     isApprover,
		CanPay:         canPay,
		IsActive:       true,
	}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	return u
}

// MintToken issues a session JWT for a user.
func MintToken(t *testing.T, u *models.User) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        u.ID,
		"org":        u.OrganizationID,
		"role":       string(u.Role),
		"isApprover": u.IsApprover,
		"canPay":     u.CanPay,
		"exp":        time.Now().Add(24 * time.Hour).Unix(),
		"iat":        time.Now().Unix(),
	})

	signed, err := token.SignedString([]byte(TestJWTSecret))
	require.NoError(t, err)
	return signed
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// PerformRawRequest sends a prebuilt body untouched, for webhook
// signature tests.
func PerformRawRequest(r http.Handler, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}

// Decode unmarshals a recorded JSON response body.
func Decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst))
}
