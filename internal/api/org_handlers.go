package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stagebill/stagebill-server/internal/models"
)

func (h *Handler) GetOrganization(c *gin.Context) {
	org, err := h.org.GetOrganization(c.Request.Context(), identityFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "organization": org})
}

func (h *Handler) UpdateOrganization(c *gin.Context) {
	var req models.UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	org, err := h.org.UpdateOrganization(c.Request.Context(), identityFrom(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "organization": org})
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := h.org.CreateUser(c.Request.Context(), identityFrom(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "user": u})
}

func (h *Handler) GetUser(c *gin.Context) {
	u, err := h.org.GetUser(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "user": u})
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.org.ListUsers(c.Request.Context(), identityFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "users": users})
}

func (h *Handler) UpdateUser(c *gin.Context) {
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := h.org.UpdateUser(c.Request.Context(), identityFrom(c), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "user": u})
}

func (h *Handler) CreateSeries(c *gin.Context) {
	var req models.CreateSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	s, err := h.org.CreateSeries(c.Request.Context(), identityFrom(c), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "series": s})
}

func (h *Handler) GetSeries(c *gin.Context) {
	s, err := h.org.GetSeries(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "series": s})
}

func (h *Handler) ListSeries(c *gin.Context) {
	series, err := h.org.ListSeries(c.Request.Context(), identityFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "series": series})
}

func (h *Handler) CreateIncident(c *gin.Context) {
	var req models.IncidentReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	rep, err := h.org.CreateIncident(c.Request.Context(), identityFrom(c), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "incident": rep})
}

func (h *Handler) ListIncidents(c *gin.Context) {
	reports, err := h.org.ListIncidents(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "incidents": reports})
}

func (h *Handler) UpdateIncident(c *gin.Context) {
	var req models.IncidentReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	rep, err := h.org.UpdateIncident(c.Request.Context(), identityFrom(c), c.Param("id"), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "incident": rep})
}

func (h *Handler) ResolveIncident(c *gin.Context) {
	if err := h.org.ResolveIncident(c.Request.Context(), identityFrom(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{Status: "success", Message: "Incident resolved"})
}

func (h *Handler) DeleteIncident(c *gin.Context) {
	if err := h.org.DeleteIncident(c.Request.Context(), identityFrom(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{Status: "success", Message: "Incident deleted"})
}
