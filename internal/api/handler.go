package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stagebill/stagebill-server/internal/domain"
	"github.com/stagebill/stagebill-server/internal/models"
	"github.com/stagebill/stagebill-server/internal/service"
)

// Handler wires the HTTP surface to the services.
type Handler struct {
	workOrders   *service.WorkOrderService
	timeLogs     *service.TimeLogService
	changeOrders *service.ChangeOrderService
	approvals    *service.ApprovalService
	invoices     *service.InvoiceService
	payments     *service.PaymentService
	org          *service.OrgService

	jwtSecret     []byte
	webhookSecret string
	log           zerolog.Logger
}

// HandlerConfig collects the Handler's dependencies.
type HandlerConfig struct {
	WorkOrders   *service.WorkOrderService
	TimeLogs     *service.TimeLogService
	ChangeOrders *service.ChangeOrderService
	Approvals    *service.ApprovalService
	Invoices     *service.InvoiceService
	Payments     *service.PaymentService
	Org          *service.OrgService

	JWTSecret     string
	WebhookSecret string
	Log           zerolog.Logger
}

// NewHandler creates the API handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		workOrders:    cfg.WorkOrders,
		timeLogs:      cfg.TimeLogs,
		changeOrders:  cfg.ChangeOrders,
		approvals:     cfg.Approvals,
		invoices:      cfg.Invoices,
		payments:      cfg.Payments,
		org:           cfg.Org,
		jwtSecret:     []byte(cfg.JWTSecret),
		webhookSecret: cfg.WebhookSecret,
		log:           cfg.Log,
	}
}

// SetupRoutes registers all routes on the router.
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(MetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public surface: the token in the URL is the credential.
	router.GET("/approve/:token", h.GetSigningContext)
	router.POST("/approve/:token", h.Sign)
	router.GET("/invoice/:viewToken", h.ViewInvoice)
	router.POST("/webhooks/payments", h.PaymentWebhook)

	api := router.Group("/api")
	api.Use(AuthMiddleware(h.jwtSecret))
	{
		api.GET("/organization", h.GetOrganization)
		api.PUT("/organization", h.UpdateOrganization)

		api.POST("/users", h.CreateUser)
		api.GET("/users", h.ListUsers)
		api.GET("/users/:id", h.GetUser)
		api.PUT("/users/:id", h.UpdateUser)

		api.POST("/series", h.CreateSeries)
		api.GET("/series", h.ListSeries)
		api.GET("/series/:id", h.GetSeries)

		api.POST("/work-orders", h.CreateWorkOrder)
		api.GET("/work-orders", h.ListWorkOrders)
		api.GET("/work-orders/:id", h.GetWorkOrder)
		api.PUT("/work-orders/:id", h.UpdateWorkOrder)
		api.DELETE("/work-orders/:id", h.DeleteWorkOrder)
		api.POST("/work-orders/:id/submit", h.SubmitWorkOrder)
		api.POST("/work-orders/:id/cancel-approval", h.CancelWorkOrderApproval)
		api.POST("/work-orders/:id/start", h.StartWorkOrder)
		api.POST("/work-orders/:id/complete", h.CompleteWorkOrder)
		api.PUT("/work-orders/:id/internal-notes", h.SetInternalNotes)
		api.GET("/work-orders/:id/approvals", h.ListApprovals)

		api.POST("/work-orders/:id/time-logs", h.CreateTimeLog)
		api.GET("/work-orders/:id/time-logs", h.ListTimeLogs)
		api.PUT("/time-logs/:id", h.UpdateTimeLog)
		api.DELETE("/time-logs/:id", h.DeleteTimeLog)

		api.POST("/work-orders/:id/change-orders", h.CreateChangeOrder)
		api.GET("/work-orders/:id/change-orders", h.ListChangeOrders)
		api.DELETE("/change-orders/:id", h.DeleteChangeOrder)

		api.POST("/work-orders/:id/incidents", h.CreateIncident)
		api.GET("/work-orders/:id/incidents", h.ListIncidents)
		api.PUT("/incidents/:id", h.UpdateIncident)
		api.POST("/incidents/:id/resolve", h.ResolveIncident)
		api.DELETE("/incidents/:id", h.DeleteIncident)

		api.POST("/approve/bulk", h.BulkSign)

		api.POST("/invoices", h.CreateInvoice)
		api.POST("/invoices/build", h.BuildInvoice)
		api.GET("/invoices", h.ListInvoices)
		api.GET("/invoices/:id", h.GetInvoice)
		api.PUT("/invoices/:id", h.UpdateInvoice)
		api.DELETE("/invoices/:id", h.DeleteInvoice)
		api.POST("/invoices/:id/send", h.SendInvoice)
		api.GET("/invoices/:id/pdf", h.InvoicePDF)
		api.POST("/invoices/:id/checkout", h.Checkout)
		api.GET("/invoices/:id/payments", h.ListPayments)
		api.POST("/invoices/:id/comments", h.AddComment)
		api.GET("/invoices/:id/comments", h.ListComments)
		api.DELETE("/invoices/:id/comments/:commentId", h.DeleteComment)
	}
}

// respondError maps domain errors onto HTTP statuses. Token lookups
// that fail return 404 so the public surface never confirms whether a
// token ever existed.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL"

	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrTokenMismatch):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrForbidden):
		status, code = http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrTokenUsed):
		status, code = http.StatusConflict, "TOKEN_USED"
	case errors.Is(err, domain.ErrStateConflict):
		status, code = http.StatusConflict, "STATE_CONFLICT"
	case errors.Is(err, domain.ErrValidation):
		status, code = http.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrIntegrity):
		status, code = http.StatusBadRequest, "INVALID_SIGNATURE"
	case errors.Is(err, domain.ErrUpstream):
		status, code = http.StatusBadGateway, "UPSTREAM"
	}

	if status == http.StatusBadGateway {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("upstream dependency failed")
		c.JSON(status, models.ErrorResponse{Status: "error", Code: code, Message: "Upstream dependency failed"})
		return
	}

	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(status, models.ErrorResponse{Status: "error", Code: code, Message: "Internal server error"})
		return
	}

	c.JSON(status, models.ErrorResponse{Status: "error", Code: code, Message: err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Status:  "error",
		Code:    "VALIDATION",
		Message: err.Error(),
	})
}
