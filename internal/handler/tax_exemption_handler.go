package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type TaxExemptionHandler struct {
	exemptionService service.TaxExemptionService
}

func NewTaxExemptionHandler(exemptionService service.TaxExemptionService) *TaxExemptionHandler {
	return &TaxExemptionHandler{exemptionService: exemptionService}
}

func (h *TaxExemptionHandler) RegisterRoutes(router *gin.RouterGroup) {
	exemptions := router.Group("/api/tax/exemptions")
	{
		exemptions.GET("", middleware.RequirePermission("exemptions.read"), h.ListExemptions)
		exemptions.GET("/:id", middleware.RequirePermission("exemptions.read"), h.GetExemption)
		exemptions.POST("", middleware.RequirePermission("exemptions.write"), h.CreateExemption)
		exemptions.PUT("/:id", middleware.RequirePermission("exemptions.write"), h.UpdateExemption)
		exemptions.POST("/:id/approve", middleware.RequirePermission("exemptions.approve"), h.ApproveExemption)
		exemptions.POST("/:id/reject", middleware.RequirePermission("exemptions.approve"), h.RejectExemption)
		exemptions.POST("/:id/suspend", middleware.RequirePermission("exemptions.approve"), h.SuspendExemption)
	}
}

// ListExemptions returns paginated exemption certificates, optionally by status
// @Summary      List exemptions
// @Tags         exemptions
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number (default: 1)"
// @Param        limit   query  int     false  "Items per page (default: 20)"
// @Param        status  query  string  false  "Filter: PENDING, APPROVED, REJECTED, EXPIRED, SUSPENDED"
// @Success      200  {object}  response.Response
// @Router       /api/tax/exemptions [get]
func (h *TaxExemptionHandler) ListExemptions(c *gin.Context) {
	page, limit := paginationParams(c)
	filter := service.ExemptionFilter{
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	}

	exemptions, total, err := h.exemptionService.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, exemptions, page, limit, total))
}

// GetExemption returns one exemption certificate
// @Summary      Get exemption
// @Tags         exemptions
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Exemption ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/tax/exemptions/{id} [get]
func (h *TaxExemptionHandler) GetExemption(c *gin.Context) {
	exemption, err := h.exemptionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, exemption))
}

// CreateExemption submits a certificate for review (status starts PENDING)
// @Summary      Create exemption
// @Tags         exemptions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateExemptionRequest  true  "Exemption payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/tax/exemptions [post]
func (h *TaxExemptionHandler) CreateExemption(c *gin.Context) {
	var req service.CreateExemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	exemption, err := h.exemptionService.Create(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, exemption))
}

// UpdateExemption edits certificate attributes
// @Summary      Update exemption
// @Tags         exemptions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                          true  "Exemption ID"
// @Param        payload  body  service.UpdateExemptionRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/tax/exemptions/{id} [put]
func (h *TaxExemptionHandler) UpdateExemption(c *gin.Context) {
	var req service.UpdateExemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	exemption, err := h.exemptionService.Update(c.Request.Context(), c.Param("id"), req, currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, exemption))
}

// ApproveExemption moves a PENDING certificate to APPROVED
// @Summary      Approve exemption
// @Tags         exemptions
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Exemption ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/tax/exemptions/{id}/approve [post]
func (h *TaxExemptionHandler) ApproveExemption(c *gin.Context) {
	exemption, err := h.exemptionService.Approve(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, exemption))
}

// RejectExemption moves a PENDING certificate to REJECTED with a reason
// @Summary      Reject exemption
// @Tags         exemptions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                          true  "Exemption ID"
// @Param        payload  body  service.RejectExemptionRequest  true  "Rejection reason"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/tax/exemptions/{id}/reject [post]
func (h *TaxExemptionHandler) RejectExemption(c *gin.Context) {
	var req service.RejectExemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	exemption, err := h.exemptionService.Reject(c.Request.Context(), c.Param("id"), currentUserID(c), req.Reason)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, exemption))
}

// SuspendExemption takes an APPROVED certificate out of effect
// @Summary      Suspend exemption
// @Tags         exemptions
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Exemption ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/tax/exemptions/{id}/suspend [post]
func (h *TaxExemptionHandler) SuspendExemption(c *gin.Context) {
	exemption, err := h.exemptionService.Suspend(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, exemption))
}
