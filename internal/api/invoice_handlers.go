package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stagebill/stagebill-server/internal/models"
)

func (h *Handler) CreateInvoice(c *gin.Context) {
	var req models.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	inv, err := h.invoices.Create(c.Request.Context(), identityFrom(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "invoice": inv})
}

func (h *Handler) BuildInvoice(c *gin.Context) {
	var req models.BuildInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	inv, err := h.invoices.BuildFromWorkOrders(c.Request.Context(), identityFrom(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "invoice": inv})
}

func (h *Handler) GetInvoice(c *gin.Context) {
	inv, err := h.invoices.Get(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "invoice": inv})
}

func (h *Handler) ListInvoices(c *gin.Context) {
	var status *models.InvoiceStatus
	if s := c.Query("status"); s != "" {
		st := models.InvoiceStatus(s)
		status = &st
	}

	invoices, err := h.invoices.List(c.Request.Context(), identityFrom(c), status)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "invoices": invoices})
}

func (h *Handler) UpdateInvoice(c *gin.Context) {
	var req models.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	inv, err := h.invoices.Update(c.Request.Context(), identityFrom(c), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "invoice": inv})
}

func (h *Handler) DeleteInvoice(c *gin.Context) {
	if err := h.invoices.Delete(c.Request.Context(), identityFrom(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{Status: "success", Message: "Invoice deleted"})
}

func (h *Handler) SendInvoice(c *gin.Context) {
	if err := h.invoices.Send(c.Request.Context(), identityFrom(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{Status: "success", Message: "Invoice sent"})
}

func (h *Handler) InvoicePDF(c *gin.Context) {
	data, err := h.invoices.RenderPDF(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/pdf", data)
}

func (h *Handler) Checkout(c *gin.Context) {
	url, err := h.invoices.Checkout(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CheckoutResponse{Status: "success", CheckoutURL: url})
}

func (h *Handler) ListPayments(c *gin.Context) {
	payments, err := h.payments.List(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "payments": payments})
}

func (h *Handler) AddComment(c *gin.Context) {
	var req models.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	comment, err := h.invoices.AddComment(c.Request.Context(), identityFrom(c), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "comment": comment})
}

func (h *Handler) DeleteComment(c *gin.Context) {
	err := h.invoices.DeleteComment(c.Request.Context(), identityFrom(c), c.Param("id"), c.Param("commentId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{Status: "success", Message: "Comment deleted"})
}

func (h *Handler) ListComments(c *gin.Context) {
	comments, err := h.invoices.ListComments(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "comments": comments})
}
