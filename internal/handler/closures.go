package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/apierror"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/dto"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/middleware"
	"github.com/Rokatacaem/billar-saas-platform-sub001/internal/service"
)

type ClosuresHandler struct{ svc service.ClosureService }

func NewClosuresHandler(svc service.ClosureService) *ClosuresHandler {
	return &ClosuresHandler{svc: svc}
}

// Consolidate godoc
// @Summary Cierra el turno con arqueo ciego
// @Tags closures
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CloseShiftRequest true "Efectivo declarado"
// @Success 201 {object} dto.ClosureResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/closures [post]
func (h *ClosuresHandler) Consolidate(c *gin.Context) {
	var req dto.CloseShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	closedBy, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Consolidate(c.Request.Context(), middleware.TenantID(c), closedBy, req)
	if err != nil {
		// Nothing pending is a valid outcome, not a failure
		if errors.Is(err, service.ErrNothingToClose) {
			c.JSON(http.StatusOK, gin.H{"closed": false, "message": "No hay sesiones pendientes de consolidar"})
			return
		}
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ClosuresHandler) Get(c *gin.Context) {
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

func (h *ClosuresHandler) List(c *gin.Context) {
	var filter dto.ClosureFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parámetros inválidos"))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), middleware.TenantID(c), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// VerifyIntegrity godoc
// @Summary Verifica el sello de integridad del cierre
// @Tags closures
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de cierre"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} apierror.APIError
// @Router /v1/closures/{id}/verify [get]
func (h *ClosuresHandler) VerifyIntegrity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	valid, err := h.svc.VerifyIntegrity(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": valid})
}
