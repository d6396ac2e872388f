package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stagebill/stagebill-server/internal/models"
)

func (h *Handler) CreateWorkOrder(c *gin.Context) {
	var req models.CreateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	wo, err := h.workOrders.Create(c.Request.Context(), identityFrom(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "workOrder": wo})
}

func (h *Handler) GetWorkOrder(c *gin.Context) {
	resp, err := h.workOrders.Get(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListWorkOrders(c *gin.Context) {
	var statuses []models.WorkOrderStatus
	for _, s := range c.QueryArray("status") {
		statuses = append(statuses, models.WorkOrderStatus(s))
	}

	orders, err := h.workOrders.List(c.Request.Context(), identityFrom(c), statuses)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "workOrders": orders})
}

func (h *Handler) UpdateWorkOrder(c *gin.Context) {
	var req models.UpdateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	wo, err := h.workOrders.Update(c.Request.Context(), identityFrom(c), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "workOrder": wo})
}

func (h *Handler) DeleteWorkOrder(c *gin.Context) {
	if err := h.workOrders.Delete(c.Request.Context(), identityFrom(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{Status: "success", Message: "Work order deleted"})
}

func (h *Handler) SubmitWorkOrder(c *gin.Context) {
	tok, err := h.workOrders.SubmitForApproval(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "approvalToken": tok.Token, "expiresAt": tok.ExpiresAt})
}

func (h *Handler) CancelWorkOrderApproval(c *gin.Context) {
	if err := h.workOrders.CancelApproval(c.Request.Context(), identityFrom(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{Status: "success", Message: "Approval request withdrawn"})
}

func (h *Handler) StartWorkOrder(c *gin.Context) {
	if err := h.workOrders.Start(c.Request.Context(), identityFrom(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{Status: "success", Message: "Work order started"})
}

func (h *Handler) CompleteWorkOrder(c *gin.Context) {
	var req models.CompleteWorkOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	if err := h.workOrders.Complete(c.Request.Context(), identityFrom(c), c.Param("id"), &req); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{Status: "success", Message: "Work order completed"})
}

func (h *Handler) SetInternalNotes(c *gin.Context) {
	var req models.InternalNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.workOrders.SetInternalNotes(c.Request.Context(), identityFrom(c), c.Param("id"), &req); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{Status: "success"})
}

func (h *Handler) CreateTimeLog(c *gin.Context) {
	var req models.TimeLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	tl, err := h.timeLogs.Create(c.Request.Context(), identityFrom(c), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "timeLog": tl})
}

func (h *Handler) ListTimeLogs(c *gin.Context) {
	views, err := h.timeLogs.List(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "timeLogs": views})
}

func (h *Handler) UpdateTimeLog(c *gin.Context) {
	var req models.TimeLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	tl, err := h.timeLogs.Update(c.Request.Context(), identityFrom(c), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "timeLog": tl})
}

func (h *Handler) DeleteTimeLog(c *gin.Context) {
	if err := h.timeLogs.Delete(c.Request.Context(), identityFrom(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{Status: "success", Message: "Time log deleted"})
}

func (h *Handler) CreateChangeOrder(c *gin.Context) {
	var req models.CreateChangeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	co, err := h.changeOrders.Create(c.Request.Context(), identityFrom(c), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "changeOrder": co})
}

func (h *Handler) ListChangeOrders(c *gin.Context) {
	cos, err := h.changeOrders.List(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "changeOrders": cos})
}

func (h *Handler) DeleteChangeOrder(c *gin.Context) {
	if err := h.changeOrders.Delete(c.Request.Context(), identityFrom(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{Status: "success", Message: "Change order withdrawn"})
}

func (h *Handler) ListApprovals(c *gin.Context) {
	approvals, err := h.approvals.ListApprovals(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "approvals": approvals})
}
