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

type MembersHandler struct{ svc service.MemberService }

func NewMembersHandler(svc service.MemberService) *MembersHandler {
	return &MembersHandler{svc: svc}
}

// Enroll godoc
// @Summary Inscribe un nuevo miembro
// @Tags members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.EnrollMemberRequest true "Datos del miembro"
// @Success 201 {object} dto.MemberResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/members [post]
func (h *MembersHandler) Enroll(c *gin.Context) {
	var req dto.EnrollMemberRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Enroll(c.Request.Context(), middleware.TenantID(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *MembersHandler) Get(c *gin.Context) {
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

func (h *MembersHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ChangeTier godoc
// @Summary Cambia la categoría del miembro (con trazabilidad)
// @Tags members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de miembro"
// @Param body body dto.ChangeTierRequest true "Nueva categoría y motivo"
// @Success 200 {object} dto.MemberResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/members/{id}/tier [put]
func (h *MembersHandler) ChangeTier(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.ChangeTierRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	changedBy, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.ChangeTier(c.Request.Context(), middleware.TenantID(c), id, changedBy, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MembersHandler) SetSubscription(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.SetSubscriptionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetSubscription(c.Request.Context(), middleware.TenantID(c), id, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MembersHandler) TierHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.TierHistory(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecordFee godoc
// @Summary Registra el pago de cuota de socio
// @Tags members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de miembro"
// @Param body body dto.RecordFeeRequest true "Monto y medio de pago"
// @Success 204
// @Failure 400 {object} apierror.APIError
// @Router /v1/members/{id}/fees [post]
func (h *MembersHandler) RecordFee(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.RecordFeeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.RecordFee(c.Request.Context(), middleware.TenantID(c), id, req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}
