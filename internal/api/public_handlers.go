package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stagebill/stagebill-server/internal/domain"
	"github.com/stagebill/stagebill-server/internal/models"
)

// bindWebhookBody parses the already-verified raw body. The body was
// consumed for signature checking, so gin's binding cannot be used.
func bindWebhookBody(body []byte, event *models.PaymentWebhookEvent) error {
	if err := json.Unmarshal(body, event); err != nil {
		return fmt.Errorf("invalid webhook body: %w", err)
	}
	if event.Type == "" || event.ProcessorPaymentID == "" || event.InvoiceID == "" {
		return fmt.Errorf("webhook body is missing required fields")
	}
	return nil
}

// signatureHeader carries the processor's HMAC over the raw webhook
// body.
const signatureHeader = "X-Payment-Signature"

func (h *Handler) GetSigningContext(c *gin.Context) {
	sc, err := h.approvals.SigningContext(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sc)
}

func (h *Handler) Sign(c *gin.Context) {
	var req models.SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	approval, err := h.approvals.Sign(c.Request.Context(), c.Param("token"), &req, c.Request.UserAgent())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "approval": approval})
}

func (h *Handler) BulkSign(c *gin.Context) {
	var req models.BulkSignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id := identityFrom(c)
	user, err := h.org.GetUser(c.Request.Context(), id, id.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	results, err := h.approvals.BulkSign(c.Request.Context(), id, user, &req, c.Request.UserAgent())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "results": results})
}

func (h *Handler) ViewInvoice(c *gin.Context) {
	inv, err := h.invoices.ViewByToken(c.Request.Context(), c.Param("viewToken"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "invoice": inv})
}

// PaymentWebhook verifies the processor's signature over the raw body
// before any parsing, then hands the event to reconciliation. Replays
// come back 200 so the processor stops retrying.
func (h *Handler) PaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, err)
		return
	}

	if err := domain.VerifyWebhookSignature(body, c.GetHeader(signatureHeader), h.webhookSecret); err != nil {
		h.respondError(c, err)
		return
	}

	var event models.PaymentWebhookEvent
	if err := bindWebhookBody(body, &event); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.payments.HandleWebhook(c.Request.Context(), &event); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{Status: "success"})
}
