package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/apierror"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/dto"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/middleware"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/service"
)

type BillingHandler struct{ svc service.BillingService }

func NewBillingHandler(svc service.BillingService) *BillingHandler {
	return &BillingHandler{svc: svc}
}

// Emit godoc
// @Summary Emite (o reemite) el documento tributario de una sesión
// @Tags billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.EmitDocumentRequest true "Sesión y tipo de documento"
// @Success 202 {object} dto.BillingDocumentResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/billing/emit [post]
func (h *BillingHandler) Emit(c *gin.Context) {
	var req dto.EmitDocumentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de sesión inválido"))
		return
	}
	resp, err := h.svc.EmitForSession(c.Request.Context(), middleware.TenantID(c), sessionID, req.DocumentType, req.CustomerEmail)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

func (h *BillingHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BillingHandler) GetBySession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.GetBySession(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}
