package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/apierror"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/middleware"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/service"
)

type AuditHandler struct{ svc service.AuditService }

func NewAuditHandler(svc service.AuditService) *AuditHandler { return &AuditHandler{svc: svc} }

// List returns the tenant's audit trail, newest first.
func (h *AuditHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	events, total, err := h.svc.List(c.Request.Context(), middleware.TenantID(c), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": events, "total": total, "page": page, "limit": limit})
}
