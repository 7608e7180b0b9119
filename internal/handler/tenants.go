package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/apierror"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/dto"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/middleware"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/service"
)

// TenantHandler exposes the authenticated tenant's own settings. The tenant
// is always derived from the JWT claim, never from the URL.
type TenantHandler struct{ svc service.TenantService }

func NewTenantHandler(svc service.TenantService) *TenantHandler {
	return &TenantHandler{svc: svc}
}

// Get godoc
// @Summary Configuración del local (modelo de negocio, tarifas, descuentos)
// @Tags tenant
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.TenantResponse
// @Router /v1/tenant [get]
func (h *TenantHandler) Get(c *gin.Context) {
	resp, err := h.svc.Get(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary Actualiza la configuración del local
// @Tags tenant
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.UpdateTenantRequest true "Campos a actualizar (parciales)"
// @Success 200 {object} dto.TenantResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/tenant [put]
func (h *TenantHandler) Update(c *gin.Context) {
	var req dto.UpdateTenantRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), middleware.TenantID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}
